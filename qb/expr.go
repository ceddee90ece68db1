package qb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOperator = errors.New("qb: unsupported operator")
	ErrColumn   = errors.New("qb: invalid column")
)

var operators = map[string]struct{}{
	"=":        {},
	"<>":       {},
	"!=":       {},
	"<":        {},
	">":        {},
	"<=":       {},
	">=":       {},
	"LIKE":     {},
	"NOT LIKE": {},
}

// Predicate is one condition of a flat WHERE chain. Conj is ignored for the
// first predicate. NoArg predicates (IS NULL, IS NOT NULL) bind nothing.
type Predicate struct {
	Conj   Conj
	Column string
	Op     string
	Arg    any
	NoArg  bool
}

func (p Predicate) Build(quote Quoter) (string, []any, error) {
	if !IsIdent(p.Column) {
		return "", nil, fmt.Errorf("%w %q", ErrColumn, p.Column)
	}

	col := Quote(quote, p.Column)
	if p.NoArg {
		return col + " " + p.Op, nil, nil
	}

	op, err := NormalizeOp(p.Op)
	if err != nil {
		return "", nil, err
	}
	return col + " " + op + " ?", []any{p.Arg}, nil
}

// NormalizeOp upper-cases and validates a comparison operator.
func NormalizeOp(op string) (string, error) {
	n := strings.ToUpper(strings.Join(strings.Fields(op), " "))
	if _, ok := operators[n]; !ok {
		return "", fmt.Errorf("%w %q", ErrOperator, op)
	}
	return n, nil
}

// IsIdent reports whether s is a plain or table-qualified identifier.
func IsIdent(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if !isIdentPart(p) {
			return false
		}
	}
	return true
}

func isIdentPart(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Quote quotes name with q. Qualified names are quoted per part, "*" and
// "t.*" keep the star bare. Anything that is not an identifier (an
// expression such as COUNT(*)) is returned untouched.
func Quote(q Quoter, name string) string {
	name = strings.TrimSpace(name)
	if name == "*" {
		return name
	}

	if table, ok := strings.CutSuffix(name, ".*"); ok && IsIdent(table) {
		return q(table) + ".*"
	}

	if !IsIdent(name) {
		return name
	}

	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = q(p)
	}
	return strings.Join(parts, ".")
}
