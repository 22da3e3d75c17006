// Package sqldb opens the relational store holding rules, feedback items
// and translation logs. SQLite (modernc, pure Go) is the default; Postgres
// through pgx serves multi-instance deployments. Queries are written once
// with ? placeholders and rebound per dialect.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/cardquery/internal/db"
)

// Dialect selects placeholder style and driver.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Config holds connection parameters.
type Config struct {
	Driver       Dialect
	DSN          string
	MaxOpenConns int
}

// DB wraps *sql.DB with the dialect it talks to.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Open connects, applies pragmas (SQLite) and runs migrations.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch cfg.Driver {
	case SQLite, "":
		conn, err = openSQLite(cfg.DSN)
		cfg.Driver = SQLite
	case Postgres:
		conn, err = openPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	d := &DB{DB: conn, dialect: cfg.Driver}
	if err := d.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

// OpenMemory opens a migrated in-memory SQLite database for tests.
// All queries share one connection since every ":memory:" connection is a
// separate database.
func OpenMemory(t testing.TB) *DB {
	t.Helper()
	d, err := Open(context.Background(), Config{Driver: SQLite, DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("sqldb.OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite %s: %w", p, err)
		}
	}
	return conn, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return stdlib.OpenDBFromPool(pool), nil
}

// Ping verifies the connection.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.DB.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Dialect returns the database flavor.
func (d *DB) Dialect() Dialect { return d.dialect }

// Rebind rewrites ? placeholders to $n for Postgres.
func (d *DB) Rebind(query string) string {
	if d.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Exec runs a rebound statement and wraps failures in db.Error.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := d.DB.ExecContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpExec, Err: err}
	}
	return res, nil
}

// Query runs a rebound query.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := d.DB.QueryContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return rows, nil
}

// QueryRow runs a rebound single-row query.
func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.DB.QueryRowContext(ctx, d.Rebind(query), args...)
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
