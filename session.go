package orm

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// session is the statement path shared by Manager and Tx.
type session struct {
	conn    conn
	dialect *Dialect
	logger  zerolog.Logger
	timeout time.Duration
	lastID  atomic.Int64
}

func (s *session) Dialect() *Dialect {
	return s.dialect
}

func (s *session) Exec(ctx context.Context, query string, args ...Value) (sql.Result, error) {
	query = s.prepare(query, args)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.conn.ExecContext(ctx, query, params(args)...)
	if err != nil {
		return nil, s.wrap("exec", query, err)
	}

	if isInsert(query) {
		if id, err := res.LastInsertId(); err == nil && id > 0 {
			s.lastID.Store(id)
		}
	}
	return res, nil
}

// Query runs a statement returning rows. The caller must Close the result.
func (s *session) Query(ctx context.Context, query string, args ...Value) (*Rows, error) {
	query = s.prepare(query, args)

	ctx, cancel := s.withTimeout(ctx)

	//nolint:rowserrcheck // checked by Rows consumers
	rows, err := s.conn.QueryContext(ctx, query, params(args)...)
	if err != nil {
		cancel()
		return nil, s.wrap("query", query, err)
	}
	return &Rows{Rows: rows, cancel: cancel}, nil
}

func (s *session) Insert(ctx context.Context, query, pk string, args ...Value) (int64, error) {
	if !s.dialect.returning {
		res, err := s.Exec(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		id, err := res.LastInsertId()
		if err != nil || id == 0 {
			return 0, ErrNoLastInsertID
		}
		return id, nil
	}

	query = s.prepare(query+" RETURNING "+s.dialect.QuoteIdent(pk), args)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var id int64
	if err := s.conn.QueryRowContext(ctx, query, params(args)...).Scan(&id); err != nil {
		return 0, s.wrap("insert", query, err)
	}
	if id > 0 {
		s.lastID.Store(id)
	}
	return id, nil
}

// LastInsertID returns the latest generated key. A Manager sees keys from
// its own statements and from committed transactions; a Tx sees only its own.
func (s *session) LastInsertID() (int64, error) {
	id := s.lastID.Load()
	if id == 0 {
		return 0, ErrNoLastInsertID
	}
	return id, nil
}

func (s *session) prepare(query string, args []Value) string {
	query = s.dialect.Rebind(query)

	s.logger.Debug().Str("sql", query).Int("args", len(args)).Msg("Executing statement")
	if e := s.logger.Trace(); e.Enabled() {
		e.Strs("values", lo.Map(args, func(v Value, _ int) string { return v.String() })).Msg("Statement arguments")
	}
	return query
}

func (s *session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func (s *session) wrap(op, query string, err error) error {
	if s.dialect.IsIntegrity(err) {
		return &IntegrityError{Op: op, Err: err}
	}
	return &StatementError{Op: op, SQL: query, Err: err}
}

func params(args []Value) []any {
	if len(args) == 0 {
		return nil
	}
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

func isInsert(query string) bool {
	q := strings.TrimSpace(query)
	return len(q) >= 6 && strings.EqualFold(q[:6], "INSERT")
}
