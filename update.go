package orm

import (
	"errors"
	"strings"

	"github.com/alqosama35/orm/qb"
)

var errNoWhere = errors.New("orm: refusing to write rows with no where conditions")

// Update renders an UPDATE of cols taken from a, restricted by the builder's
// predicates. An unrestricted update is refused.
func (b *Builder) Update(a *Attributes, cols []string) (string, []Value, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if len(cols) == 0 {
		return "", nil, errors.New("orm: update without columns")
	}

	cond, whereArgs, err := qb.Build(b.quote, b.preds...)
	if err != nil {
		return "", nil, b.invalid(err)
	}

	if cond == "" {
		return "", nil, errNoWhere
	}

	var sb strings.Builder

	sb.WriteString("UPDATE ")
	sb.WriteString(b.quote(b.table))
	sb.WriteString(" SET")

	for i, col := range cols {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(" ")
		sb.WriteString(b.quote(col))
		sb.WriteString(" = ?")
	}

	sb.WriteString(" WHERE ")
	sb.WriteString(cond)

	args := a.Values(cols)
	for _, w := range whereArgs {
		args = append(args, w.(Value))
	}

	return b.executor.Dialect().Rebind(sb.String()), args, nil
}
