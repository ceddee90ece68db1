package orm

import (
	"errors"
	"strings"
)

// Insert renders an INSERT of cols taken from a, in the order given.
func (b *Builder) Insert(a *Attributes, cols []string) (string, []Value, error) {
	if len(cols) == 0 {
		return "", nil, errors.New("orm: insert without columns")
	}

	var sb, vb strings.Builder

	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.quote(b.table))
	sb.WriteString(" (")
	vb.WriteString("(")

	for i, col := range cols {
		if i > 0 {
			sb.WriteString(", ")
			vb.WriteString(", ")
		}
		sb.WriteString(b.quote(col))
		vb.WriteString("?")
	}

	sb.WriteString(") VALUES ")
	vb.WriteString(")")
	sb.WriteString(vb.String())

	return b.executor.Dialect().Rebind(sb.String()), a.Values(cols), nil
}
