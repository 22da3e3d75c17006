// Package translate serves translation requests: validation, the shared
// result cache, learned rules and the compile pipeline, in that order.
package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/cardquery/internal/domain"
	"github.com/kailas-cloud/cardquery/internal/domain/search/filter"
	"github.com/kailas-cloud/cardquery/internal/domain/search/mode"
	"github.com/kailas-cloud/cardquery/internal/domain/search/request"
	"github.com/kailas-cloud/cardquery/internal/domain/search/result"
	"github.com/kailas-cloud/cardquery/internal/domain/translation"
	"github.com/kailas-cloud/cardquery/internal/metrics"
	"github.com/kailas-cloud/cardquery/internal/translate/normalize"
	"github.com/kailas-cloud/cardquery/internal/validate"
)

// Config holds translation limits and cache timings.
type Config struct {
	MaxQueryLength int
	MaxParams      int
	CacheTTL       time.Duration
	FeedbackTTL    time.Duration
	LockTTL        time.Duration
	LockPoll       time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxQueryLength <= 0 {
		c.MaxQueryLength = 500
	}
	if c.MaxParams <= 0 {
		c.MaxParams = 15
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 24 * time.Hour
	}
	if c.FeedbackTTL <= 0 {
		c.FeedbackTTL = 7 * 24 * time.Hour
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 5 * time.Second
	}
	if c.LockPoll <= 0 {
		c.LockPoll = 50 * time.Millisecond
	}
}

// Request is one translation request.
type Request struct {
	Query     string
	SessionID string
	Filters   filter.Filters
}

// SearchRequest translates and then runs the query upstream.
type SearchRequest struct {
	Request
	Page   int
	Order  string
	Unique mode.Mode
}

// SearchResult is a translation plus one page of cards.
type SearchResult struct {
	Translation translation.Result
	Page        result.Page
}

// Service handles translation business logic.
type Service struct {
	compiler Compiler
	cache    CacheRepo
	rules    *RuleMatcher
	ruleRepo RuleRepo
	logs     LogRepo
	searcher Searcher
	cfg      Config
	owner    string
	group    singleflight.Group
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a translation service. rules, logs and searcher may be nil.
func New(
	compiler Compiler, cache CacheRepo, rules *RuleMatcher,
	logs LogRepo, searcher Searcher, cfg Config, logger *zap.Logger,
) *Service {
	cfg.applyDefaults()
	s := &Service{
		compiler: compiler,
		cache:    cache,
		rules:    rules,
		logs:     logs,
		searcher: searcher,
		cfg:      cfg,
		owner:    uuid.NewString(),
		logger:   logger,
		now:      time.Now,
	}
	if rules != nil {
		s.ruleRepo = rules.repo
	}
	return s
}

// Translate validates a request and returns its compiled query.
func (s *Service) Translate(ctx context.Context, req Request) (translation.Result, error) {
	err := new(validate.Validator).
		String("query", req.Query, validate.Required(), validate.MaxLen(s.cfg.MaxQueryLength), validate.NoInjection()).
		Optional("sessionId", req.SessionID, validate.Matches(validate.SessionIDShape, "1-128 letters, digits, '-' or '_'")).
		Err()
	if err != nil {
		return translation.Result{}, err
	}

	normalized := normalize.Normalize(req.Query)
	if normalized == "" {
		return translation.Result{}, fmt.Errorf("query is empty after normalization: %w", domain.ErrInvalidInput)
	}

	res, err := s.resolve(ctx, normalized)
	if err != nil {
		return translation.Result{}, err
	}
	res.Query = req.Query
	unfiltered := res.Compiled
	res.Compiled = req.Filters.Apply(res.Compiled)

	if n := validate.CountTerms(res.Compiled); n > s.cfg.MaxParams {
		return translation.Result{}, fmt.Errorf("compiled query has %d terms (max %d): %w",
			n, s.cfg.MaxParams, domain.ErrTooManyParams)
	}

	metrics.TranslationsTotal.WithLabelValues(string(res.Source)).Inc()
	s.appendLog(ctx, res, unfiltered)
	return res, nil
}

// Search translates a request and runs the compiled query upstream.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	if s.searcher == nil {
		return SearchResult{}, fmt.Errorf("search is not configured: %w", domain.ErrUpstreamUnavailable)
	}
	tr, err := s.Translate(ctx, req.Request)
	if err != nil {
		return SearchResult{}, err
	}

	sr, err := request.New(tr.Compiled, req.Page, req.Order, req.Unique)
	if err != nil {
		return SearchResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	page, err := s.searcher.Search(ctx, sr)
	if err != nil {
		return SearchResult{Translation: tr}, fmt.Errorf("search: %w", err)
	}
	return SearchResult{Translation: tr, Page: page}, nil
}

// appendLog records the translation without request filters, since the
// miner turns logged queries into rules shared by every caller.
func (s *Service) appendLog(ctx context.Context, res translation.Result, compiled string) {
	if s.logs == nil {
		return
	}
	err := s.logs.Append(ctx, translation.LogEntry{
		Query:      res.Query,
		Normalized: res.NormalizedQuery,
		Compiled:   compiled,
		Confidence: res.Confidence,
		Source:     res.Source,
	})
	if err != nil {
		s.logger.Warn("Failed to append translation log", zap.Error(err))
	}
}
