// Package sqlstore provides a database/sql implementation of store.Backend.
//
// Two drivers are supported: SQLite through modernc.org/sqlite (the default,
// stored at ~/.orchard/orchard.db) and Postgres through pgx's database/sql
// adapter. Both share one schema; timestamps are stored as Unix milliseconds.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver

	"github.com/jacentio/orchard/store"
)

// Compile-time contract assertion.
var _ store.Backend = (*Store)(nil)

const (
	// DriverSQLite selects the pure-Go SQLite driver.
	DriverSQLite = "sqlite"

	// DriverPostgres selects pgx's database/sql driver.
	DriverPostgres = "pgx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS containers (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	name TEXT NOT NULL,
	color TEXT NOT NULL,
	icon TEXT NOT NULL,
	sort_order INTEGER NOT NULL,
	created_at BIGINT NOT NULL,
	version BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS sub_containers (
	id TEXT PRIMARY KEY,
	container_id TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	name TEXT NOT NULL,
	color TEXT NOT NULL,
	icon TEXT NOT NULL,
	sort_order INTEGER NOT NULL,
	created_at BIGINT NOT NULL,
	version BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS items (
	id TEXT PRIMARY KEY,
	container_id TEXT NOT NULL,
	sub_container_id TEXT,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	notes TEXT,
	status TEXT NOT NULL,
	sort_order INTEGER NOT NULL,
	created_at BIGINT NOT NULL,
	completed_at BIGINT,
	version BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_containers_owner ON containers(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sub_containers_container ON sub_containers(container_id)`,
	`CREATE INDEX IF NOT EXISTS idx_items_container ON items(container_id)`,
}

// Config holds configuration for the SQL store.
type Config struct {
	// Driver is DriverSQLite or DriverPostgres.
	// Default: DriverSQLite
	Driver string

	// DSN is the SQLite file path or the Postgres connection string.
	// Default: DefaultPath() for SQLite.
	DSN string

	// MaxOpenConns caps the connection pool. SQLite is always limited to one
	// connection so that units of work never contend for the file lock.
	// Default: 0 (unlimited) for Postgres.
	MaxOpenConns int
}

// DefaultPath returns the default SQLite database path (~/.orchard/orchard.db).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".orchard", "orchard.db"), nil
}

// validate fills defaults.
func (c *Config) validate() error {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	switch c.Driver {
	case DriverSQLite:
		c.MaxOpenConns = 1
		if c.DSN == "" {
			path, err := DefaultPath()
			if err != nil {
				return err
			}
			c.DSN = path
		}
	case DriverPostgres:
		if c.DSN == "" {
			return fmt.Errorf("sqlstore: postgres requires a DSN")
		}
	default:
		return fmt.Errorf("sqlstore: unsupported driver %q", c.Driver)
	}
	if c.MaxOpenConns < 0 {
		c.MaxOpenConns = 0
	}
	return nil
}

// Store runs units of work as SQL transactions.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and creates the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Driver == DriverSQLite && !isMemoryDSN(cfg.DSN) {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	s := &Store{db: db, driver: cfg.Driver}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file:")
}

// init creates the schema.
func (s *Store) init(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying connection pool.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Update runs fn inside a SQL transaction and commits when fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	return s.run(ctx, false, fn)
}

// View runs fn inside a SQL transaction that is always rolled back.
func (s *Store) View(ctx context.Context, fn func(store.Tx) error) error {
	return s.run(ctx, true, fn)
}

func (s *Store) run(ctx context.Context, readOnly bool, fn func(store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &transaction{tx: sqlTx, driver: s.driver, readOnly: readOnly}
	if err := fn(tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if readOnly {
		_ = sqlTx.Rollback()
		return nil
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
