package feedback

import (
	"context"
	"time"

	domfb "github.com/kailas-cloud/cardquery/internal/domain/feedback"
	domrule "github.com/kailas-cloud/cardquery/internal/domain/rule"
)

// Repo persists feedback items and their status transitions.
type Repo interface {
	Create(ctx context.Context, it domfb.Item) error
	Get(ctx context.Context, id string) (domfb.Item, error)
	Claim(ctx context.Context, id string) (bool, error)
	Finish(ctx context.Context, id string, status domfb.Status, ruleID, reason string) (bool, error)
	CountByPattern(ctx context.Context, query, excludeID string) (int, error)
	FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error)
	ListPending(ctx context.Context, limit int) ([]string, error)
}

// RuleRepo writes learned rules.
type RuleRepo interface {
	FindActiveByPattern(ctx context.Context, pattern string) (domrule.Rule, error)
	FindActiveByKey(ctx context.Context, key string) (domrule.Rule, error)
	Get(ctx context.Context, id string) (domrule.Rule, error)
	Insert(ctx context.Context, rl domrule.Rule) error
	Update(ctx context.Context, id, compiledQuery string, confidence float64, description, feedbackID string) error
}

// Counter runs a compiled query against the card database.
type Counter interface {
	Count(ctx context.Context, query string) (int, error)
}

// CacheRefresher publishes a committed rule to the translation cache.
type CacheRefresher interface {
	Refresh(ctx context.Context, rl domrule.Rule) error
}
