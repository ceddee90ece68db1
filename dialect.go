package orm

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/samber/lo"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect holds what differs between the supported engines: driver name,
// identifier quoting, placeholder style, DSN layout and constraint errors.
type Dialect struct {
	Name   string
	Driver string

	quote     byte
	numbered  bool
	returning bool

	dsn       func(Config) string
	integrity func(error) bool
}

var (
	MySQL = &Dialect{
		Name:      "mysql",
		Driver:    "mysql",
		quote:     '`',
		dsn:       mysqlDSN,
		integrity: mysqlIntegrity,
	}

	SQLite = &Dialect{
		Name:      "sqlite",
		Driver:    "sqlite",
		quote:     '"',
		dsn:       sqliteDSN,
		integrity: sqliteIntegrity,
	}

	Postgres = &Dialect{
		Name:      "postgres",
		Driver:    "pgx",
		quote:     '"',
		numbered:  true,
		returning: true,
		dsn:       postgresDSN,
		integrity: postgresIntegrity,
	}
)

var dialects = map[string]*Dialect{
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pgx":        Postgres,
}

// DialectFor looks a dialect up by driver name.
func DialectFor(name string) (*Dialect, error) {
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := lo.Keys(dialects)
		sort.Strings(names)
		return nil, fmt.Errorf("orm: unknown driver %q (available: %s)", name, strings.Join(names, ", "))
	}
	return d, nil
}

func (d *Dialect) String() string {
	return d.Name
}

// QuoteIdent quotes one identifier part, doubling embedded quote characters.
func (d *Dialect) QuoteIdent(s string) string {
	q := string(d.quote)
	return q + strings.ReplaceAll(s, q, q+q) + q
}

// Rebind rewrites ? placeholders into the dialect's style. Question marks
// inside quoted literals or identifiers are left alone.
func (d *Dialect) Rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}

	var (
		sb    strings.Builder
		n     int
		quote byte
	)
	sb.Grow(len(query) + 8)

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(c)
	}

	return sb.String()
}

// Escape escapes s for use inside a single-quoted literal. Bound parameters
// are always preferred; this exists for legacy literal SQL.
func (d *Dialect) Escape(s string) string {
	if d != MySQL {
		return strings.ReplaceAll(s, "'", "''")
	}

	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			sb.WriteString(`\0`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '"':
			sb.WriteString(`\"`)
		case 0x1a:
			sb.WriteString(`\Z`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// DSN renders the driver connection string for cfg.
func (d *Dialect) DSN(cfg Config) string {
	return d.dsn(cfg)
}

// IsIntegrity reports whether err is a constraint violation for this engine.
func (d *Dialect) IsIntegrity(err error) bool {
	return err != nil && d.integrity(err)
}

func mysqlDSN(cfg Config) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(lo.Ternary(cfg.Port > 0, cfg.Port, 3306)))
	c.DBName = cfg.Database
	c.Collation = cfg.Collation
	c.ParseTime = true
	c.Timeout = cfg.ConnectTimeout
	if cfg.Charset != "" {
		c.Params = map[string]string{"charset": cfg.Charset}
	}
	return c.FormatDSN()
}

func sqliteDSN(cfg Config) string {
	return cfg.Database + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func postgresDSN(cfg Config) string {
	pairs := [][2]string{
		{"host", cfg.Host},
		{"port", strconv.Itoa(lo.Ternary(cfg.Port > 0, cfg.Port, 5432))},
		{"user", cfg.User},
		{"password", cfg.Password},
		{"dbname", cfg.Database},
		{"sslmode", lo.Ternary(cfg.SSLMode != "", cfg.SSLMode, "disable")},
	}
	if cfg.Charset != "" {
		pairs = append(pairs, [2]string{"client_encoding", pgEncoding(cfg.Charset)})
	}
	if secs := int(cfg.ConnectTimeout.Seconds()); secs > 0 {
		pairs = append(pairs, [2]string{"connect_timeout", strconv.Itoa(secs)})
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		parts = append(parts, p[0]+"="+pgQuote(p[1]))
	}
	return strings.Join(parts, " ")
}

// pgEncoding maps MySQL charset names onto Postgres encodings.
func pgEncoding(charset string) string {
	switch strings.ToLower(charset) {
	case "utf8", "utf8mb4", "utf8mb3":
		return "UTF8"
	}
	return strings.ToUpper(charset)
}

func pgQuote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

var mysqlIntegrityCodes = []uint16{
	1022, // duplicate key
	1048, // column cannot be null
	1062, // duplicate entry
	1169, // unique constraint
	1216, // child row: foreign key fails
	1217, // parent row: foreign key fails
	1451, // cannot delete parent row
	1452, // cannot add child row
}

func mysqlIntegrity(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && lo.Contains(mysqlIntegrityCodes, me.Number)
}

func sqliteIntegrity(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

func postgresIntegrity(err error) bool {
	var pe *pgconn.PgError
	return errors.As(err, &pe) && strings.HasPrefix(pe.Code, "23")
}
