// Package translog appends successful translations to the SQL store; the
// pattern miner reads them back in bounded windows.
package translog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/cardquery/internal/db/sqldb"
	"github.com/kailas-cloud/cardquery/internal/domain/translation"
)

// Repo implements the translation log contracts.
type Repo struct {
	db *sqldb.DB
}

// New creates a translation log repository.
func New(d *sqldb.DB) *Repo {
	return &Repo{db: d}
}

// Append records one translation. Missing ids and timestamps are filled in.
func (r *Repo) Append(ctx context.Context, e translation.LogEntry) error {
	if e.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate log id: %w", err)
		}
		e.ID = id.String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(ctx, `INSERT INTO translation_logs
		(id, query, normalized, compiled, confidence, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Query, e.Normalized, e.Compiled, e.Confidence, string(e.Source), e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("append translation log: %w", err)
	}
	return nil
}

// ListSince returns up to limit entries created at or after since, newest first.
func (r *Repo) ListSince(ctx context.Context, since time.Time, limit int) ([]translation.LogEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, query, normalized, compiled, confidence, source, created_at
		FROM translation_logs WHERE created_at >= ? ORDER BY created_at DESC LIMIT ?`,
		since.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("list translation logs: %w", err)
	}
	defer rows.Close()

	var out []translation.LogEntry
	for rows.Next() {
		var (
			e       translation.LogEntry
			source  string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Query, &e.Normalized, &e.Compiled, &e.Confidence, &source, &created); err != nil {
			return nil, fmt.Errorf("scan translation log: %w", err)
		}
		e.Source = translation.Source(source)
		e.CreatedAt = time.UnixMilli(created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list translation logs: %w", err)
	}
	return out, nil
}
