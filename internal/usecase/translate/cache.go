package translate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domcache "github.com/kailas-cloud/cardquery/internal/domain/cache"
	domrule "github.com/kailas-cloud/cardquery/internal/domain/rule"
	"github.com/kailas-cloud/cardquery/internal/domain/translation"
	"github.com/kailas-cloud/cardquery/internal/metrics"
)

type computed struct {
	res translation.Result
	ttl time.Duration
}

// resolve returns the result for a normalized query. Concurrent misses for
// the same query share one computation in this process (singleflight) and
// across processes (a SET NX lock in the KV store; losers poll for the
// entry). The computation runs detached from ctx so a caller that gives up
// does not abort it for the others.
func (s *Service) resolve(ctx context.Context, normalized string) (translation.Result, error) {
	hash := domcache.HashQuery(normalized)
	if e, ok := s.lookup(ctx, hash); ok {
		return fromEntry(e), nil
	}

	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(hash, func() (any, error) {
		return s.computeOnce(detached, normalized, hash), nil
	})

	select {
	case <-ctx.Done():
		return translation.Result{}, fmt.Errorf("translate: %w", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return translation.Result{}, r.Err
		}
		if r.Shared {
			metrics.TranslationCacheTotal.WithLabelValues("shared").Inc()
		}
		return r.Val.(translation.Result), nil
	}
}

func (s *Service) computeOnce(ctx context.Context, normalized, hash string) translation.Result {
	acquired, err := s.cache.AcquireLock(ctx, hash, s.owner, s.cfg.LockTTL)
	switch {
	case err != nil:
		s.logger.Warn("Cache lock unavailable, computing without it", zap.Error(err))
	case !acquired:
		if e, ok := s.waitForEntry(ctx, hash); ok {
			return fromEntry(e)
		}
		s.logger.Debug("Cache lock holder did not publish in time", zap.String("hash", hash))
	default:
		defer func() {
			if err := s.cache.ReleaseLock(ctx, hash); err != nil {
				s.logger.Warn("Failed to release cache lock", zap.String("hash", hash), zap.Error(err))
			}
		}()
		// another process may have published between our miss and the lock
		if e, ok := s.lookup(ctx, hash); ok {
			return fromEntry(e)
		}
	}

	c := s.compute(ctx, normalized)
	s.store(ctx, hash, c)
	return c.res
}

// compute consults learned rules, then the pipeline.
func (s *Service) compute(ctx context.Context, normalized string) computed {
	if s.rules != nil {
		rl, ok, err := s.rules.Match(ctx, normalized)
		switch {
		case err != nil:
			s.logger.Warn("Rule lookup failed, using pipeline", zap.Error(err))
		case ok:
			if err := s.ruleRepo.RecordHit(ctx, rl.ID()); err != nil {
				s.logger.Warn("Failed to record rule hit", zap.String("rule_id", rl.ID()), zap.Error(err))
			}
			return computed{res: ruleResult(normalized, rl), ttl: s.cfg.FeedbackTTL}
		}
	}

	start := time.Now()
	c := s.compiler.Compile(normalized)
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())

	return computed{
		res: translation.Result{
			NormalizedQuery: normalized,
			Compiled:        c.Query,
			Explanation:     c.Explanation,
			Confidence:      c.Confidence,
			Source:          translation.SourcePipeline,
			Warnings:        c.Warnings,
		},
		ttl: s.cfg.CacheTTL,
	}
}

func (s *Service) waitForEntry(ctx context.Context, hash string) (domcache.Entry, bool) {
	timeout := time.NewTimer(s.cfg.LockTTL)
	defer timeout.Stop()
	ticker := time.NewTicker(s.cfg.LockPoll)
	defer ticker.Stop()

	for {
		select {
		case <-timeout.C:
			return domcache.Entry{}, false
		case <-ticker.C:
			if e, ok, err := s.cache.Get(ctx, hash); err == nil && ok {
				return e, true
			}
		}
	}
}

func (s *Service) lookup(ctx context.Context, hash string) (domcache.Entry, bool) {
	e, ok, err := s.cache.Get(ctx, hash)
	if err != nil {
		s.logger.Warn("Cache read failed", zap.String("hash", hash), zap.Error(err))
		return domcache.Entry{}, false
	}
	if !ok {
		return domcache.Entry{}, false
	}
	if err := s.cache.Touch(ctx, hash); err != nil {
		s.logger.Debug("Cache touch failed", zap.String("hash", hash), zap.Error(err))
	}
	return e, true
}

func (s *Service) store(ctx context.Context, hash string, c computed) {
	if err := s.put(ctx, hash, c); err != nil {
		s.logger.Warn("Cache write failed", zap.String("hash", hash), zap.Error(err))
	}
}

func (s *Service) put(ctx context.Context, hash string, c computed) error {
	e := domcache.Entry{
		QueryHash:       hash,
		NormalizedQuery: c.res.NormalizedQuery,
		CompiledQuery:   c.res.Compiled,
		Explanation:     c.res.Explanation,
		Confidence:      c.res.Confidence,
		Source:          string(c.res.Source),
		ExpiresAt:       s.now().Add(c.ttl),
	}
	return s.cache.Put(ctx, e, c.ttl)
}

// Refresh publishes a freshly committed rule to the cache so an older
// pipeline result for the same pattern stops being served.
func (s *Service) Refresh(ctx context.Context, rl domrule.Rule) error {
	if s.rules != nil {
		s.rules.Invalidate()
	}
	hash := domcache.HashQuery(rl.Pattern())
	s.group.Forget(hash)

	if err := s.put(ctx, hash, computed{res: ruleResult(rl.Pattern(), rl), ttl: s.cfg.FeedbackTTL}); err != nil {
		return fmt.Errorf("refresh cache for %q: %w", rl.Pattern(), err)
	}
	return nil
}

func ruleResult(normalized string, rl domrule.Rule) translation.Result {
	explanation := rl.Description()
	if explanation == "" {
		explanation = fmt.Sprintf("learned rule for %q", rl.Pattern())
	}
	return translation.Result{
		NormalizedQuery: normalized,
		Compiled:        rl.CompiledQuery(),
		Explanation:     explanation,
		Confidence:      rl.Confidence(),
		Source:          translation.SourceRule,
	}
}

func fromEntry(e domcache.Entry) translation.Result {
	return translation.Result{
		NormalizedQuery: e.NormalizedQuery,
		Compiled:        e.CompiledQuery,
		Explanation:     e.Explanation,
		Confidence:      e.Confidence,
		Source:          translation.SourceCache,
		Cached:          true,
	}
}
