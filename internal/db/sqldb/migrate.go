package sqldb

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/cardquery/internal/db"
)

// migrations are applied in order; each entry is one schema version.
// Column types are chosen to mean the same thing in SQLite and Postgres.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS rules (
		id                 TEXT PRIMARY KEY,
		pattern            TEXT NOT NULL,
		pattern_key        TEXT NOT NULL,
		compiled_query     TEXT NOT NULL,
		confidence         DOUBLE PRECISION NOT NULL,
		description        TEXT NOT NULL DEFAULT '',
		source_feedback_id TEXT NOT NULL DEFAULT '',
		source             TEXT NOT NULL,
		active             BOOLEAN NOT NULL DEFAULT TRUE,
		hit_count          BIGINT NOT NULL DEFAULT 0,
		created_at         BIGINT NOT NULL,
		updated_at         BIGINT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS rules_active_pattern ON rules (pattern) WHERE active;
	CREATE INDEX IF NOT EXISTS rules_pattern_key ON rules (pattern_key);`,

	`CREATE TABLE IF NOT EXISTS feedback (
		id                TEXT PRIMARY KEY,
		original_query    TEXT NOT NULL,
		translated_query  TEXT NOT NULL DEFAULT '',
		issue_description TEXT NOT NULL DEFAULT '',
		pattern_key       TEXT NOT NULL,
		status            TEXT NOT NULL,
		generated_rule_id TEXT NOT NULL DEFAULT '',
		reason            TEXT NOT NULL DEFAULT '',
		created_at        BIGINT NOT NULL,
		updated_at        BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS feedback_status ON feedback (status, updated_at);
	CREATE INDEX IF NOT EXISTS feedback_pattern_key ON feedback (pattern_key);`,

	`CREATE TABLE IF NOT EXISTS translation_logs (
		id         TEXT PRIMARY KEY,
		query      TEXT NOT NULL,
		normalized TEXT NOT NULL,
		compiled   TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		source     TEXT NOT NULL,
		created_at BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS translation_logs_created_at ON translation_logs (created_at);`,
}

// Migrate applies pending migrations, recording versions in schema_migrations.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.DB.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version BIGINT PRIMARY KEY)`); err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}

	var current int
	if err := d.DB.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		if err := d.apply(ctx, version, migrations[i]); err != nil {
			return &db.Error{Op: db.OpMigrate, Err: fmt.Errorf("version %d: %w", version, err)}
		}
	}
	return nil
}

// Version returns the highest applied migration.
func (d *DB) Version(ctx context.Context) (int, error) {
	var v int
	err := d.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v)
	return v, err
}

func (d *DB) apply(ctx context.Context, version int, ddl string) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, d.Rebind(`INSERT INTO schema_migrations (version) VALUES (?)`), version); err != nil {
		return err
	}
	return tx.Commit()
}
