package orm

import "github.com/alqosama35/orm/qb"

// Builder accumulates a query against one schema's table. It is not safe for
// concurrent use. Invalid input (an unknown operator, a bad column name) is
// remembered and reported as a *ValidationError by the executing call, before
// any SQL is sent.
type Builder struct {
	executor Executor
	schema   *Schema
	table    string

	cols   []string
	preds  []qb.Predicate
	orders []qb.Order
	joins  []qb.Join

	offset, limit int

	err error
}

func NewBuilder(executor Executor, schema *Schema) *Builder {
	return &Builder{
		executor: executor,
		schema:   schema,
		table:    schema.Table,
		offset:   -1,
		limit:    -1,
	}
}

func (b *Builder) quote(ident string) string {
	return b.executor.Dialect().QuoteIdent(ident)
}

func (b *Builder) fail(field, msg string, err error) *Builder {
	if b.err == nil {
		b.err = &ValidationError{Table: b.table, Field: field, Msg: msg, Underlying: err}
	}
	return b
}

// Err returns the first input error recorded by the builder.
func (b *Builder) Err() error {
	return b.err
}
