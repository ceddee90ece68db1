package orm

import (
	"context"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/alqosama35/orm/qb"
)

func (b *Builder) Select(cols ...string) *Builder {
	if len(cols) > 0 {
		b.cols = cols
	}
	return b
}

func (b *Builder) Where(col, op string, val Value) *Builder {
	return b.where(qb.And, col, op, val)
}

// OrWhere appends an OR predicate. Predicates are never grouped, so
// Where(a).OrWhere(b).Where(c) renders "a OR b AND c" and the engine's
// precedence applies.
func (b *Builder) OrWhere(col, op string, val Value) *Builder {
	return b.where(qb.Or, col, op, val)
}

func (b *Builder) WhereNull(col string) *Builder {
	return b.null(qb.Null(col))
}

func (b *Builder) WhereNotNull(col string) *Builder {
	return b.null(qb.NotNull(col))
}

func (b *Builder) OrWhereNull(col string) *Builder {
	return b.null(qb.Null(col).Or())
}

func (b *Builder) where(conj qb.Conj, col, op string, val Value) *Builder {
	if !qb.IsIdent(col) {
		return b.fail(col, "invalid column name", qb.ErrColumn)
	}

	op, err := qb.NormalizeOp(op)
	if err != nil {
		return b.fail(col, err.Error(), err)
	}

	// comparing against NULL with = never matches; use IS [NOT] NULL
	if val.IsNull() {
		switch op {
		case "=":
			return b.null(qb.Predicate{Conj: conj, Column: col, Op: "IS NULL", NoArg: true})
		case "<>", "!=":
			return b.null(qb.Predicate{Conj: conj, Column: col, Op: "IS NOT NULL", NoArg: true})
		}
	}

	b.preds = append(b.preds, qb.Predicate{Conj: conj, Column: col, Op: op, Arg: val})
	return b
}

// WhereExpr appends prebuilt predicates such as qb.Gt("qty", 2) or
// qb.Like("title", "lily").Or(). Arguments go through ValueOf.
func (b *Builder) WhereExpr(preds ...qb.Predicate) *Builder {
	for _, p := range preds {
		conj := p.Conj
		if conj == "" {
			conj = qb.And
		}

		if p.NoArg {
			op := strings.ToUpper(strings.Join(strings.Fields(p.Op), " "))
			if op != "IS NULL" && op != "IS NOT NULL" {
				return b.fail(p.Column, "unsupported operator "+strconv.Quote(p.Op), qb.ErrOperator)
			}
			b.null(qb.Predicate{Conj: conj, Column: p.Column, Op: op, NoArg: true})
			continue
		}

		v, err := ValueOf(p.Arg)
		if err != nil {
			return b.fail(p.Column, err.Error(), err)
		}
		b.where(conj, p.Column, p.Op, v)
	}
	return b
}

func (b *Builder) null(p qb.Predicate) *Builder {
	if !qb.IsIdent(p.Column) {
		return b.fail(p.Column, "invalid column name", qb.ErrColumn)
	}
	b.preds = append(b.preds, p)
	return b
}

func (b *Builder) Join(target, first, op, second string) *Builder {
	return b.join(qb.Inner, target, first, op, second)
}

func (b *Builder) LeftJoin(target, first, op, second string) *Builder {
	return b.join(qb.Left, target, first, op, second)
}

func (b *Builder) join(kind qb.JoinKind, target, first, op, second string) *Builder {
	b.joins = append(b.joins, qb.Join{Kind: kind, Table: target, Left: first, Op: op, Right: second})
	return b
}

// OrderBy appends an ORDER BY term. direction is "asc" or "desc" in any
// case and defaults to ascending.
func (b *Builder) OrderBy(col string, direction ...string) *Builder {
	if !qb.IsIdent(col) {
		return b.fail(col, "invalid order column", qb.ErrColumn)
	}

	var dir string
	if len(direction) > 0 {
		dir = direction[0]
	}
	by, err := qb.ParseSortBy(dir)
	if err != nil {
		return b.fail(col, err.Error(), err)
	}
	b.orders = append(b.orders, qb.Order{Column: col, By: by})
	return b
}

func (b *Builder) Offset(a int) *Builder {
	if a < 0 {
		return b.fail("", "offset must not be negative", nil)
	}
	b.offset = a
	return b
}

func (b *Builder) Limit(a int) *Builder {
	if a < 0 {
		return b.fail("", "limit must not be negative", nil)
	}
	b.limit = a
	return b
}

// ToSQL renders the SELECT and its bindings, in predicate order.
func (b *Builder) ToSQL() (string, []Value, error) {
	if b.err != nil {
		return "", nil, b.err
	}

	cond, whereArgs, err := qb.Build(b.quote, b.preds...)
	if err != nil {
		return "", nil, b.invalid(err)
	}

	joins, err := qb.BuildJoins(b.quote, b.joins...)
	if err != nil {
		return "", nil, b.invalid(err)
	}

	orders, err := qb.BuildOrders(b.quote, b.orders...)
	if err != nil {
		return "", nil, b.invalid(err)
	}

	var sb strings.Builder

	sb.WriteString("SELECT ")

	if len(b.cols) < 1 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(lo.Map(b.cols, func(c string, _ int) string {
			return qb.Quote(b.quote, c)
		}), ", "))
	}

	sb.WriteString(" FROM ")
	sb.WriteString(b.quote(b.table))
	sb.WriteString(joins)

	if cond != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(cond)
	}

	if orders != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(orders)
	}

	if b.limit > -1 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}

	if b.offset > -1 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(b.offset))
	}

	args := lo.Map(whereArgs, func(a any, _ int) Value { return a.(Value) })
	return b.executor.Dialect().Rebind(sb.String()), args, nil
}

// Get runs the query and hydrates one persisted Record per row.
func (b *Builder) Get(ctx context.Context) ([]*Record, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := b.executor.Query(ctx, query, args...)
	if err != nil {
		return nil, annotate(err, "select", b.table, Null())
	}
	defer rows.Close()

	bags, err := rows.scanAll(b.schema)
	if err != nil {
		return nil, annotate(err, "select", b.table, Null())
	}

	return lo.Map(bags, func(a *Attributes, _ int) *Record {
		return hydrate(b.executor, b.schema, a)
	}), nil
}

// First limits the query to one row. It returns nil when nothing matches.
func (b *Builder) First(ctx context.Context) (*Record, error) {
	records, err := b.Limit(1).Get(ctx)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

// Count returns COUNT(*) over the current predicates and joins. Limit,
// offset and ordering do not apply.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	v, err := b.aggregate(ctx, "COUNT(*)", KindInt)
	if err != nil {
		return 0, err
	}
	n, _ := v.AsInt()
	return n, nil
}

// Sum returns SUM(col) like Count does; no matching rows sum to 0.
func (b *Builder) Sum(ctx context.Context, col string) (float64, error) {
	if !qb.IsIdent(col) {
		return 0, &ValidationError{Table: b.table, Field: col, Msg: "invalid sum column", Underlying: qb.ErrColumn}
	}

	v, err := b.aggregate(ctx, "SUM("+qb.Quote(b.quote, col)+")", KindFloat)
	if err != nil {
		return 0, err
	}
	f, _ := v.AsFloat()
	return f, nil
}

func (b *Builder) aggregate(ctx context.Context, expr string, kind Kind) (Value, error) {
	agg := *b
	agg.cols = []string{expr}
	agg.orders = nil
	agg.limit, agg.offset = -1, -1

	query, args, err := agg.ToSQL()
	if err != nil {
		return Null(), err
	}

	rows, err := b.executor.Query(ctx, query, args...)
	if err != nil {
		return Null(), annotate(err, "aggregate", b.table, Null())
	}
	defer rows.Close()

	v, err := rows.scalar(kind)
	if err != nil {
		return Null(), annotate(err, "aggregate", b.table, Null())
	}
	return v, nil
}

func (b *Builder) invalid(err error) error {
	return &ValidationError{Table: b.table, Msg: err.Error(), Underlying: err}
}
