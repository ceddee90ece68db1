package orm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRecordDeleted is returned by any operation on a record after Delete.
	ErrRecordDeleted = errors.New("orm: record has been deleted")

	// ErrNoLastInsertID is returned when no insert has generated a key yet.
	ErrNoLastInsertID = errors.New("orm: no last insert id available")

	ErrUnknownRelation = errors.New("orm: unknown relation")

	// ErrTxDone is returned when a transaction is used after Commit or Rollback.
	ErrTxDone = errors.New("orm: transaction already committed or rolled back")
)

// ConnectionError means every connect attempt failed. It is fatal until the
// configuration changes.
type ConnectionError struct {
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("orm: failed to connect after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StatementError wraps a prepare, bind or execute failure. Statements are
// never retried.
type StatementError struct {
	Op    string
	Table string
	Key   Value
	SQL   string
	Err   error
}

func (e *StatementError) Error() string {
	return "orm: " + describe(e.Op, e.Table, e.Key) + ": " + e.Err.Error()
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// IntegrityError is a write the engine rejected, e.g. a unique or foreign key
// violation. Err is the driver error as returned.
type IntegrityError struct {
	Op    string
	Table string
	Key   Value
	Err   error
}

func (e *IntegrityError) Error() string {
	return "orm: integrity violation in " + describe(e.Op, e.Table, e.Key) + ": " + e.Err.Error()
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// ValidationError is raised before any SQL is issued.
type ValidationError struct {
	Table, Field, Msg string
	Underlying        error
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("orm: validation failed")
	if e.Table != "" {
		sb.WriteString(" on ")
		sb.WriteString(e.Table)
		if e.Field != "" {
			sb.WriteString(".")
			sb.WriteString(e.Field)
		}
	} else if e.Field != "" {
		sb.WriteString(" on ")
		sb.WriteString(e.Field)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	return sb.String()
}

func (e *ValidationError) Unwrap() error {
	return e.Underlying
}

func describe(op, table string, key Value) string {
	s := op
	if table != "" {
		s += " " + table
	}
	if !key.IsNull() {
		s += " [" + key.String() + "]"
	}
	return s
}
