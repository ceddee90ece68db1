package qb

import (
	"fmt"
	"strings"
)

func Eq(col string, val any) Predicate {
	return Predicate{Conj: And, Column: col, Op: "=", Arg: val}
}

func Neq(col string, val any) Predicate {
	return Predicate{Conj: And, Column: col, Op: "<>", Arg: val}
}

func Gt(col string, val any) Predicate {
	return Predicate{Conj: And, Column: col, Op: ">", Arg: val}
}

func Lt(col string, val any) Predicate {
	return Predicate{Conj: And, Column: col, Op: "<", Arg: val}
}

func Gte(col string, val any) Predicate {
	return Predicate{Conj: And, Column: col, Op: ">=", Arg: val}
}

func Lte(col string, val any) Predicate {
	return Predicate{Conj: And, Column: col, Op: "<=", Arg: val}
}

func Like(col string, val string) Predicate {
	return Predicate{Conj: And, Column: col, Op: "LIKE", Arg: "%" + val + "%"}
}

func Null(col string) Predicate {
	return Predicate{Conj: And, Column: col, Op: "IS NULL", NoArg: true}
}

func NotNull(col string) Predicate {
	return Predicate{Conj: And, Column: col, Op: "IS NOT NULL", NoArg: true}
}

// Or returns p joined with OR instead of AND.
func (p Predicate) Or() Predicate {
	p.Conj = Or
	return p
}

// Build renders preds in order as a flat chain. There is no grouping: a
// chain "a AND b OR c" follows the engine's own AND/OR precedence.
func Build(quote Quoter, preds ...Predicate) (string, []any, error) {
	var (
		sb   strings.Builder
		args []any
	)

	for i, p := range preds {
		out, pArgs, err := p.Build(quote)
		if err != nil {
			return "", nil, err
		}

		if i > 0 {
			conj := p.Conj
			if conj == "" {
				conj = And
			}
			sb.WriteString(" ")
			sb.WriteString(string(conj))
			sb.WriteString(" ")
		}

		sb.WriteString(out)
		args = append(args, pArgs...)
	}

	return sb.String(), args, nil
}

func BuildJoins(quote Quoter, joins ...Join) (string, error) {
	var sb strings.Builder

	for _, j := range joins {
		if !IsIdent(j.Table) || !IsIdent(j.Left) || !IsIdent(j.Right) {
			return "", fmt.Errorf("%w in join on %q", ErrColumn, j.Table)
		}
		op, err := NormalizeOp(j.Op)
		if err != nil {
			return "", err
		}

		sb.WriteString(" ")
		sb.WriteString(string(j.Kind))
		sb.WriteString(" JOIN ")
		sb.WriteString(Quote(quote, j.Table))
		sb.WriteString(" ON ")
		sb.WriteString(Quote(quote, j.Left))
		sb.WriteString(" ")
		sb.WriteString(op)
		sb.WriteString(" ")
		sb.WriteString(Quote(quote, j.Right))
	}

	return sb.String(), nil
}

func BuildOrders(quote Quoter, orders ...Order) (string, error) {
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		if !IsIdent(o.Column) {
			return "", fmt.Errorf("%w %q", ErrColumn, o.Column)
		}
		parts = append(parts, Quote(quote, o.Column)+" "+o.By.String())
	}
	return strings.Join(parts, ", "), nil
}
