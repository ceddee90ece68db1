package qb

import (
	"fmt"
	"strings"
)

// Conj joins a predicate to the one before it.
type Conj string

const (
	And Conj = "AND"
	Or  Conj = "OR"
)

type SortBy uint8

const (
	Ascend SortBy = iota
	Descend
)

func (s SortBy) String() string {
	if s == Descend {
		return "DESC"
	}
	return "ASC"
}

// ParseSortBy accepts "asc" or "desc" in any case. Empty means Ascend.
func ParseSortBy(s string) (SortBy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return Ascend, nil
	case "DESC":
		return Descend, nil
	}
	return Ascend, fmt.Errorf("qb: invalid sort direction %q", s)
}

type JoinKind string

const (
	Inner JoinKind = "INNER"
	Left  JoinKind = "LEFT"
)

type Order struct {
	Column string
	By     SortBy
}

type Join struct {
	Kind  JoinKind
	Table string
	Left  string
	Op    string
	Right string
}

// Quoter quotes a single identifier part (no dots).
type Quoter func(ident string) string
