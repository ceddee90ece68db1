package orm

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// Field declares one fillable column. KindNull accepts any kind.
type Field struct {
	Name     string
	Kind     Kind
	Nullable bool
}

// Schema describes one entity type: its table, primary key, fillable
// columns and belongs-to relations.
type Schema struct {
	Table      string
	PrimaryKey string
	Fields     []Field

	// Validate checks entity invariants before any INSERT or UPDATE. A
	// non-ValidationError result is wrapped in one.
	Validate func(r *Record) error

	relations map[string]*Relation
}

func NewSchema(table string, fields ...Field) *Schema {
	return &Schema{Table: table, PrimaryKey: "id", Fields: fields}
}

// Key returns the primary key column, "id" unless configured.
func (s *Schema) Key() string {
	if s.PrimaryKey == "" {
		return "id"
	}
	return s.PrimaryKey
}

func (s *Schema) Field(name string) (Field, bool) {
	return lo.Find(s.Fields, func(f Field) bool { return f.Name == name })
}

// Fillable returns the column whitelist in declaration order.
func (s *Schema) Fillable() []string {
	return lo.Map(s.Fields, func(f Field, _ int) string { return f.Name })
}

func (s *Schema) IsFillable(name string) bool {
	return lo.Contains(s.Fillable(), name)
}

// generatedKey reports whether the engine may generate the primary key: it
// must be an undeclared or integer column.
func (s *Schema) generatedKey() bool {
	f, ok := s.Field(s.Key())
	return !ok || f.Kind == KindInt
}

func (s *Schema) kindOf(col string) Kind {
	if f, ok := s.Field(col); ok {
		return f.Kind
	}
	return KindNull
}

// check validates cols of r, then runs the Validate hook.
func (s *Schema) check(r *Record, cols []string) error {
	for _, col := range cols {
		f, ok := s.Field(col)
		if !ok && col == s.Key() {
			continue
		}
		if !ok {
			return &ValidationError{Table: s.Table, Field: col, Msg: "column is not fillable"}
		}

		v := r.Get(col)
		switch {
		case v.IsNull():
			if !f.Nullable && col != s.Key() {
				return &ValidationError{Table: s.Table, Field: col, Msg: "must not be null"}
			}
		case f.Kind != KindNull && v.Kind() != f.Kind:
			return &ValidationError{
				Table: s.Table,
				Field: col,
				Msg:   fmt.Sprintf("expected %s, got %s", f.Kind, v.Kind()),
			}
		}
	}

	if s.Validate == nil {
		return nil
	}

	err := s.Validate(r)
	if err == nil {
		return nil
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		if ve.Table == "" {
			ve.Table = s.Table
		}
		return ve
	}
	return &ValidationError{Table: s.Table, Msg: err.Error(), Underlying: err}
}
