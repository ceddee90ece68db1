package orm

import (
	"context"

	"github.com/alqosama35/orm/qb"
)

// Model is the entry point for one schema: it creates records and starts
// queries scoped to the schema's table.
type Model struct {
	executor Executor
	schema   *Schema
}

func NewModel(executor Executor, schema *Schema) *Model {
	return &Model{executor: executor, schema: schema}
}

// For builds a Model from a type that describes its own schema.
func For(executor Executor, m Modeler) *Model {
	return NewModel(executor, m.Schema())
}

func (m *Model) Schema() *Schema { return m.schema }

// New returns a transient record filled from h.
func (m *Model) New(h H) *Record {
	r := newRecord(m.executor, m.schema)
	r.fill(h)
	return r
}

func (m *Model) Query() *Builder {
	return NewBuilder(m.executor, m.schema)
}

// Find loads the record with primary key id, or nil if there is none.
func (m *Model) Find(ctx context.Context, id Value) (*Record, error) {
	return m.Query().Where(m.schema.Key(), "=", id).First(ctx)
}

func (m *Model) All(ctx context.Context) ([]*Record, error) {
	return m.Query().Get(ctx)
}

func (m *Model) Get(ctx context.Context) ([]*Record, error) {
	return m.Query().Get(ctx)
}

func (m *Model) Where(col, op string, val Value) *Builder {
	return m.Query().Where(col, op, val)
}

func (m *Model) OrderBy(col string, direction ...string) *Builder {
	return m.Query().OrderBy(col, direction...)
}

func (m *Model) WhereExpr(preds ...qb.Predicate) *Builder {
	return m.Query().WhereExpr(preds...)
}

func (m *Model) Limit(n int) *Builder {
	return m.Query().Limit(n)
}

func (m *Model) Count(ctx context.Context) (int64, error) {
	return m.Query().Count(ctx)
}

func (m *Model) Sum(ctx context.Context, col string) (float64, error) {
	return m.Query().Sum(ctx, col)
}
