package orm

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
)

// Tx is a unit of work pinned to one connection. It implements Executor, so
// Models and Records built on it run inside the transaction. Exactly one of
// Commit or Rollback must be called. Keys generated inside the transaction
// become the Manager's LastInsertID only once it commits.
type Tx struct {
	*session
	parent *session
	tx     *sql.Tx
	done   atomic.Bool
}

func (m *Manager) Begin(ctx context.Context) (*Tx, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &StatementError{Op: "begin", Err: err}
	}

	return &Tx{
		session: &session{conn: tx, dialect: m.dialect, logger: m.logger, timeout: m.timeout},
		parent:  m.session,
		tx:      tx,
	}, nil
}

func (t *Tx) Commit() error {
	if t.done.Swap(true) {
		return ErrTxDone
	}
	if err := t.tx.Commit(); err != nil {
		return &StatementError{Op: "commit", Err: err}
	}
	if id := t.lastID.Load(); id > 0 {
		t.parent.lastID.Store(id)
	}
	return nil
}

func (t *Tx) Rollback() error {
	if t.done.Swap(true) {
		return ErrTxDone
	}
	if err := t.tx.Rollback(); err != nil {
		return &StatementError{Op: "rollback", Err: err}
	}
	return nil
}

// Transaction runs fn inside a transaction. An error or panic from fn rolls
// the transaction back before it propagates; otherwise it is committed.
func (m *Manager) Transaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := m.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				m.logger.Error().Err(rbErr).Msg("Failed to rollback transaction")
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
