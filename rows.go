package orm

import (
	"context"
	"database/sql"
	"fmt"
)

// Rows is a result cursor. Close releases the connection and the statement
// timeout, if any.
type Rows struct {
	*sql.Rows
	cancel context.CancelFunc
}

func (r *Rows) Close() error {
	err := r.Rows.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

// scanAll reads every row into an attribute bag, coercing values to the
// schema's declared kinds where the column is known.
func (r *Rows) scanAll(s *Schema) ([]*Attributes, error) {
	cols, err := r.Columns()
	if err != nil {
		return nil, &StatementError{Op: "scan", Err: err}
	}

	var (
		out  []*Attributes
		raw  = make([]any, len(cols))
		ptrs = make([]any, len(cols))
	)
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for r.Next() {
		if err := r.Scan(ptrs...); err != nil {
			return nil, &StatementError{Op: "scan", Err: err}
		}

		a := NewAttributes()
		for i, col := range cols {
			// joined tables come after the base table in SELECT *; a repeated
			// name keeps the base table's column
			if _, seen := a.Get(col); seen {
				continue
			}
			v, err := scanValue(raw[i], s.kindOf(col))
			if err != nil {
				return nil, &StatementError{Op: "scan", Err: fmt.Errorf("column %s: %w", col, err)}
			}
			a.Set(col, v)
		}
		out = append(out, a)
	}

	if err := r.Err(); err != nil {
		return nil, &StatementError{Op: "scan", Err: err}
	}
	return out, nil
}

// scalar reads the first column of the first row. No row yields NULL.
func (r *Rows) scalar(kind Kind) (Value, error) {
	if !r.Next() {
		if err := r.Err(); err != nil {
			return Null(), &StatementError{Op: "scan", Err: err}
		}
		return Null(), nil
	}

	var raw any
	if err := r.Scan(&raw); err != nil {
		return Null(), &StatementError{Op: "scan", Err: err}
	}

	v, err := scanValue(raw, kind)
	if err != nil {
		return Null(), &StatementError{Op: "scan", Err: err}
	}
	return v, nil
}
