package orm

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Dialer opens and verifies one pool. The default uses sql.Open and PingContext.
type Dialer func(ctx context.Context, d *Dialect, dsn string) (*sql.DB, error)

type Option func(*options)

type options struct {
	logger  zerolog.Logger
	dialer  Dialer
	timeout time.Duration
}

// WithLogger sets the logger for statements and connect retries. The
// default is the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithStatementTimeout bounds every statement. It overrides
// Config.StatementTimeout.
func WithStatementTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func newOptions(opts []Option) *options {
	o := &options{logger: log.Logger, dialer: dial, timeout: -1}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Manager owns the pool handle. It is safe for concurrent use; each
// statement checks a connection out of the pool and returns it when done.
type Manager struct {
	*session
	db *sql.DB
}

// Connect dials the engine described by cfg. Each attempt is bounded by
// cfg.ConnectTimeout; attempts are spaced by cfg.RetryDelay. After
// MaxConnectAttempts failures a *ConnectionError is returned and nothing
// is kept open.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	o := newOptions(opts)
	if o.timeout < 0 {
		o.timeout = cfg.StatementTimeout
	}
	dsn := d.DSN(cfg)

	var lastErr error
	for attempt := 1; attempt <= MaxConnectAttempts; attempt++ {
		db, err := dialAttempt(ctx, o.dialer, d, dsn, cfg.ConnectTimeout)
		if err == nil {
			configurePool(db, d, cfg)

			o.logger.Debug().
				Str("driver", d.Name).
				Str("host", cfg.Host).
				Str("database", cfg.Database).
				Int("attempt", attempt).
				Msg("Database connection established")

			return newManager(db, d, o), nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, &ConnectionError{Attempts: attempt, Err: ctx.Err()}
		}
		if attempt == MaxConnectAttempts {
			break
		}

		o.logger.Warn().
			Err(err).
			Str("driver", d.Name).
			Str("host", cfg.Host).
			Int("attempt", attempt).
			Dur("backoff", cfg.RetryDelay).
			Msg("Database connection failed; retrying")

		timer := time.NewTimer(cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &ConnectionError{Attempts: attempt, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	o.logger.Error().Err(lastErr).Int("attempts", MaxConnectAttempts).Msg("Giving up on database connection")
	return nil, &ConnectionError{Attempts: MaxConnectAttempts, Err: lastErr}
}

// Open wraps an already opened pool. No retry or ping is performed.
func Open(db *sql.DB, d *Dialect, opts ...Option) *Manager {
	o := newOptions(opts)
	if o.timeout < 0 {
		o.timeout = 0
	}
	return newManager(db, d, o)
}

func newManager(db *sql.DB, d *Dialect, o *options) *Manager {
	return &Manager{
		session: &session{conn: db, dialect: d, logger: o.logger, timeout: o.timeout},
		db:      db,
	}
}

func dialAttempt(ctx context.Context, dialer Dialer, d *Dialect, dsn string, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return dialer(ctx, d, dsn)
}

func dial(ctx context.Context, d *Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func configurePool(db *sql.DB, d *Dialect, cfg Config) {
	// every connection to an in-memory SQLite database is a separate database
	if d == SQLite && strings.Contains(cfg.Database, ":memory:") {
		db.SetMaxOpenConns(1)
		return
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
}

// Escape escapes s for a quoted literal in the connection's dialect.
func (m *Manager) Escape(s string) string {
	return m.dialect.Escape(s)
}

func (m *Manager) Ping(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return &StatementError{Op: "ping", Err: err}
	}
	return nil
}

func (m *Manager) Close() error {
	m.logger.Debug().Msg("Closing database connection")
	return m.db.Close()
}
