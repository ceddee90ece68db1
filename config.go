package orm

import (
	"errors"
	"fmt"
	"time"
)

const (
	// MaxConnectAttempts bounds connection establishment.
	MaxConnectAttempts = 3

	DefaultDriver         = "mysql"
	DefaultHost           = "localhost"
	DefaultUser           = "root"
	DefaultDatabase       = "museum_db"
	DefaultCharset        = "utf8mb4"
	DefaultCollation      = "utf8mb4_unicode_ci"
	DefaultConnectTimeout = 5 * time.Second
	DefaultRetryDelay     = time.Second
	DefaultMaxOpenConns   = 10
	DefaultMaxIdleConns   = 5
)

// Config describes how to reach the storage engine.
type Config struct {
	Driver    string `koanf:"driver"`
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	User      string `koanf:"user"`
	Password  string `koanf:"password"`
	Database  string `koanf:"database"`
	Charset   string `koanf:"charset"`
	Collation string `koanf:"collation"`
	SSLMode   string `koanf:"sslmode"`

	ConnectTimeout   time.Duration `koanf:"connect_timeout"`
	RetryDelay       time.Duration `koanf:"retry_delay"`
	StatementTimeout time.Duration `koanf:"statement_timeout"` // zero disables

	MaxOpenConns int `koanf:"max_open_conns"`
	MaxIdleConns int `koanf:"max_idle_conns"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c == nil {
		return
	}
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Charset == "" {
		c.Charset = DefaultCharset
	}
	if c.Collation == "" && c.Driver == "mysql" {
		c.Collation = DefaultCollation
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("orm: nil config")
	}
	if _, err := DialectFor(c.Driver); err != nil {
		return err
	}
	if c.Database == "" {
		return fmt.Errorf("orm: database is required")
	}
	if c.StatementTimeout < 0 {
		return fmt.Errorf("orm: statement timeout must not be negative")
	}
	return nil
}
