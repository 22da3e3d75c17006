// Package feedback persists feedback items. Status changes are conditional
// updates so that two processors can never both claim or both finish an item.
package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/cardquery/internal/db/sqldb"
	"github.com/kailas-cloud/cardquery/internal/domain"
	domfb "github.com/kailas-cloud/cardquery/internal/domain/feedback"
	"github.com/kailas-cloud/cardquery/internal/domain/rule"
	"github.com/kailas-cloud/cardquery/internal/translate/normalize"
)

const columns = `id, original_query, translated_query, issue_description, status,
	generated_rule_id, reason, created_at, updated_at`

// Repo implements the feedback usecase repository.
type Repo struct {
	db  *sqldb.DB
	now func() time.Time
}

// New creates a feedback repository.
func New(d *sqldb.DB) *Repo {
	return &Repo{db: d, now: time.Now}
}

// Create stores a new item.
func (r *Repo) Create(ctx context.Context, it domfb.Item) error {
	_, err := r.db.Exec(ctx, `INSERT INTO feedback
		(id, original_query, translated_query, issue_description, pattern_key,
		 status, generated_rule_id, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID(), it.OriginalQuery(), it.TranslatedQuery(), it.IssueDescription(),
		patternKey(it.OriginalQuery()), string(it.Status()), it.GeneratedRuleID(), it.Reason(),
		it.CreatedAt(), it.UpdatedAt())
	if err != nil {
		return fmt.Errorf("insert feedback %s: %w", it.ID(), err)
	}
	return nil
}

// Get returns an item by id.
func (r *Repo) Get(ctx context.Context, id string) (domfb.Item, error) {
	row := r.db.QueryRow(ctx, `SELECT `+columns+` FROM feedback WHERE id = ?`, id)
	it, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domfb.Item{}, domain.ErrNotFound
	}
	return it, err
}

// Claim moves a pending item to processing. Returns false when the item is
// not pending (already claimed, finished or missing).
func (r *Repo) Claim(ctx context.Context, id string) (bool, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE feedback SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(domfb.StatusProcessing), r.now().UnixMilli(), id, string(domfb.StatusPending))
	if err != nil {
		return false, fmt.Errorf("claim feedback %s: %w", id, err)
	}
	return affected(res)
}

// Finish moves a processing item to a terminal status. Returns false when
// the item was no longer processing (for example failed by the sweeper).
func (r *Repo) Finish(ctx context.Context, id string, status domfb.Status, ruleID, reason string) (bool, error) {
	if !domfb.CanTransition(domfb.StatusProcessing, status) {
		return false, fmt.Errorf("finish feedback %s with %q: %w", id, status, domain.ErrInvalidInput)
	}
	res, err := r.db.Exec(ctx,
		`UPDATE feedback SET status = ?, generated_rule_id = ?, reason = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(status), ruleID, reason, r.now().UnixMilli(), id, string(domfb.StatusProcessing))
	if err != nil {
		return false, fmt.Errorf("finish feedback %s: %w", id, err)
	}
	return affected(res)
}

// CountByPattern counts other items whose request has the same
// order-independent key as query.
func (r *Repo) CountByPattern(ctx context.Context, query, excludeID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM feedback WHERE pattern_key = ? AND id <> ?`,
		patternKey(query), excludeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}

// FailStale fails every item stuck in processing since before cutoff and
// returns how many were failed.
func (r *Repo) FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE feedback SET status = ?, reason = ?, updated_at = ?
		WHERE status = ? AND updated_at < ?`,
		string(domfb.StatusFailed), reason, r.now().UnixMilli(),
		string(domfb.StatusProcessing), cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("fail stale feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// ListPending returns the oldest pending item ids.
func (r *Repo) ListPending(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM feedback WHERE status = ? ORDER BY created_at ASC LIMIT ?`,
		string(domfb.StatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending feedback: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan feedback id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func patternKey(query string) string {
	return rule.PatternKey(normalize.Normalize(query))
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func scan(row *sql.Row) (domfb.Item, error) {
	var (
		id, original, translated, issue, status, ruleID, reason string
		createdAt, updatedAt                                    int64
	)
	err := row.Scan(&id, &original, &translated, &issue, &status, &ruleID, &reason, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domfb.Item{}, err
		}
		return domfb.Item{}, fmt.Errorf("scan feedback: %w", err)
	}
	return domfb.Reconstruct(id, original, translated, issue, domfb.Status(status),
		ruleID, reason, createdAt, updatedAt), nil
}
