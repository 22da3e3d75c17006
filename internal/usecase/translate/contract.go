package translate

import (
	"context"
	"time"

	domcache "github.com/kailas-cloud/cardquery/internal/domain/cache"
	domrule "github.com/kailas-cloud/cardquery/internal/domain/rule"
	"github.com/kailas-cloud/cardquery/internal/domain/search/request"
	"github.com/kailas-cloud/cardquery/internal/domain/search/result"
	"github.com/kailas-cloud/cardquery/internal/domain/translation"
	pipeline "github.com/kailas-cloud/cardquery/internal/translate"
)

// Compiler turns a raw request into a compiled query.
type Compiler interface {
	Compile(input string) pipeline.Compiled
}

// CacheRepo stores compiled results and in-flight locks.
type CacheRepo interface {
	Get(ctx context.Context, hash string) (domcache.Entry, bool, error)
	Put(ctx context.Context, e domcache.Entry, ttl time.Duration) error
	Touch(ctx context.Context, hash string) error
	Delete(ctx context.Context, hash string) error
	AcquireLock(ctx context.Context, hash, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, hash string) error
}

// RuleRepo reads learned rules.
type RuleRepo interface {
	FindActiveByPattern(ctx context.Context, pattern string) (domrule.Rule, error)
	FindActiveByKey(ctx context.Context, key string) (domrule.Rule, error)
	ActivePatterns(ctx context.Context) ([]string, error)
	RecordHit(ctx context.Context, id string) error
}

// LogRepo appends translations for the pattern miner.
type LogRepo interface {
	Append(ctx context.Context, e translation.LogEntry) error
}

// Searcher runs compiled queries against the card database.
type Searcher interface {
	Search(ctx context.Context, req request.Request) (result.Page, error)
}
