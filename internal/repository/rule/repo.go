// Package rule persists learned translation rules in the SQL store.
// Rules are never deleted: they are deactivated, or updated in place when
// feedback on the same pattern is retried.
package rule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/cardquery/internal/db/sqldb"
	"github.com/kailas-cloud/cardquery/internal/domain"
	domrule "github.com/kailas-cloud/cardquery/internal/domain/rule"
)

const columns = `id, pattern, compiled_query, confidence, description,
	source_feedback_id, source, active, hit_count, created_at, updated_at`

// Repo implements the rule contracts of the translate, feedback and miner usecases.
type Repo struct {
	db *sqldb.DB
}

// New creates a rule repository.
func New(d *sqldb.DB) *Repo {
	return &Repo{db: d}
}

// Insert stores a new rule. ErrAlreadyExists when an active rule has the same pattern.
func (r *Repo) Insert(ctx context.Context, rl domrule.Rule) error {
	if err := insert(ctx, r.db, r.db.Rebind, rl); err != nil {
		if sqldb.IsUniqueViolation(err) {
			return fmt.Errorf("insert rule %q: %w", rl.Pattern(), domain.ErrAlreadyExists)
		}
		return fmt.Errorf("insert rule %q: %w", rl.Pattern(), err)
	}
	return nil
}

// InsertMany stores rules in one transaction and returns how many were
// written. Rules colliding with an active pattern are skipped.
func (r *Repo) InsertMany(ctx context.Context, rules []domrule.Rule) (int, error) {
	if len(rules) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	written := 0
	for _, rl := range rules {
		var exists int
		err := tx.QueryRowContext(ctx,
			r.db.Rebind(`SELECT COUNT(*) FROM rules WHERE pattern = ? AND active = TRUE`), rl.Pattern()).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("check rule %q: %w", rl.Pattern(), err)
		}
		if exists > 0 {
			continue
		}
		if err := insert(ctx, tx, r.db.Rebind, rl); err != nil {
			return 0, fmt.Errorf("insert rule %q: %w", rl.Pattern(), err)
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, e execer, rebind func(string) string, rl domrule.Rule) error {
	_, err := e.ExecContext(ctx, rebind(`INSERT INTO rules
		(id, pattern, pattern_key, compiled_query, confidence, description,
		 source_feedback_id, source, active, hit_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rl.ID(), rl.Pattern(), rl.Key(), rl.CompiledQuery(), rl.Confidence(), rl.Description(),
		rl.SourceFeedbackID(), string(rl.Source()), rl.Active(), rl.HitCount(), rl.CreatedAt(), rl.UpdatedAt())
	return err
}

// FindActiveByPattern returns the active rule for an exact normalized pattern.
func (r *Repo) FindActiveByPattern(ctx context.Context, pattern string) (domrule.Rule, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+columns+` FROM rules WHERE pattern = ? AND active = TRUE`, pattern)
	return scanOne(row)
}

// FindActiveByKey returns the most confident active rule with the same
// order-independent key.
func (r *Repo) FindActiveByKey(ctx context.Context, key string) (domrule.Rule, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+columns+` FROM rules WHERE pattern_key = ? AND active = TRUE
		ORDER BY confidence DESC, updated_at DESC LIMIT 1`, key)
	return scanOne(row)
}

// Get returns a rule by id, active or not.
func (r *Repo) Get(ctx context.Context, id string) (domrule.Rule, error) {
	return scanOne(r.db.QueryRow(ctx, `SELECT `+columns+` FROM rules WHERE id = ?`, id))
}

// ListActive returns active rules ordered by hit count then pattern.
func (r *Repo) ListActive(ctx context.Context, limit, offset int) ([]domrule.Rule, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+columns+` FROM rules WHERE active = TRUE
		ORDER BY hit_count DESC, pattern ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	out := []domrule.Rule{}
	for rows.Next() {
		rl, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return out, nil
}

// ActivePatterns returns every active pattern.
func (r *Repo) ActivePatterns(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT pattern FROM rules WHERE active = TRUE ORDER BY pattern`)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update rewrites the compiled query of an existing rule in place.
func (r *Repo) Update(
	ctx context.Context, id, compiledQuery string, confidence float64, description, feedbackID string,
) error {
	res, err := r.db.Exec(ctx,
		`UPDATE rules SET compiled_query = ?, confidence = ?, description = ?,
		source_feedback_id = ?, updated_at = ? WHERE id = ?`,
		compiledQuery, confidence, description, feedbackID, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("update rule %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Deactivate stops serving a rule.
func (r *Repo) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx,
		`UPDATE rules SET active = FALSE, updated_at = ? WHERE id = ?`, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("deactivate rule %s: %w", id, err)
	}
	return requireRow(res, id)
}

// RecordHit increments the hit counter.
func (r *Repo) RecordHit(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `UPDATE rules SET hit_count = hit_count + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("record hit %s: %w", id, err)
	}
	return nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rule %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (domrule.Rule, error) {
	rl, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domrule.Rule{}, domain.ErrNotFound
	}
	return rl, err
}

func scan(s scanner) (domrule.Rule, error) {
	var (
		id, pattern, compiled, description, feedbackID, source string
		confidence                                             float64
		active                                                 bool
		hits, createdAt, updatedAt                             int64
	)
	err := s.Scan(&id, &pattern, &compiled, &confidence, &description,
		&feedbackID, &source, &active, &hits, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domrule.Rule{}, err
		}
		return domrule.Rule{}, fmt.Errorf("scan rule: %w", err)
	}
	return domrule.Reconstruct(id, pattern, compiled, confidence, description,
		feedbackID, domrule.Source(source), active, hits, createdAt, updatedAt), nil
}
