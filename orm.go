// Package orm is a small active-record layer: a connection manager with
// bounded connect retry, a fluent query builder scoped to one table, and
// records that track their own changes.
//
// Nothing here keeps global state. A *Manager (or a *Tx) is passed to every
// Model and Record, so tests and concurrent callers stay isolated.
package orm

import (
	"context"
	"database/sql"
)

// Executor runs statements against the engine. *Manager and *Tx implement it.
// Failures come back as *StatementError or *IntegrityError.
type Executor interface {
	Exec(ctx context.Context, query string, args ...Value) (sql.Result, error)
	Query(ctx context.Context, query string, args ...Value) (*Rows, error)

	// Insert runs an INSERT and returns the key generated for pk.
	Insert(ctx context.Context, query, pk string, args ...Value) (int64, error)

	// LastInsertID returns the key generated by the latest insert through
	// this executor.
	LastInsertID() (int64, error)

	Dialect() *Dialect
}

// Modeler is implemented by domain types that expose their schema.
type Modeler interface {
	Schema() *Schema
}
