package orm

import (
	"strings"

	"github.com/samber/lo"

	"github.com/alqosama35/orm/qb"
)

// Delete renders a DELETE restricted by the builder's predicates. An
// unrestricted delete is refused.
func (b *Builder) Delete() (string, []Value, error) {
	if b.err != nil {
		return "", nil, b.err
	}

	cond, whereArgs, err := qb.Build(b.quote, b.preds...)
	if err != nil {
		return "", nil, b.invalid(err)
	}

	if cond == "" {
		return "", nil, errNoWhere
	}

	var sb strings.Builder

	sb.WriteString("DELETE FROM ")
	sb.WriteString(b.quote(b.table))
	sb.WriteString(" WHERE ")
	sb.WriteString(cond)

	args := lo.Map(whereArgs, func(a any, _ int) Value { return a.(Value) })
	return b.executor.Dialect().Rebind(sb.String()), args, nil
}
