// Package ratelimit admits a request only if its caller key, its session
// and the global ceiling all have room in their current fixed window.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/domain"
)

// Scopes reported in RateLimitError.
const (
	ScopeKey     = "key"
	ScopeSession = "session"
	ScopeGlobal  = "global"
)

// Limits configures the three windows. A zero limit disables that scope.
type Limits struct {
	PerKey     int64
	PerSession int64
	Global     int64
	Window     time.Duration
}

// Service checks rate limits.
type Service struct {
	counter  Counter
	limits   Limits
	rejected *prometheus.CounterVec
	logger   *zap.Logger
}

// New creates a rate limiter. rejected has label "scope" and may be nil.
func New(counter Counter, limits Limits, rejected *prometheus.CounterVec, logger *zap.Logger) *Service {
	if limits.Window <= 0 {
		limits.Window = time.Minute
	}
	return &Service{counter: counter, limits: limits, rejected: rejected, logger: logger}
}

// Allow counts the request in every enabled scope and returns a
// *domain.RateLimitError for the first scope over its limit. Counter
// failures admit the request.
func (s *Service) Allow(ctx context.Context, key, session string) error {
	checks := []struct {
		scope string
		id    string
		limit int64
	}{
		{ScopeKey, "key:" + key, s.limits.PerKey},
		{ScopeSession, "session:" + session, s.limits.PerSession},
		{ScopeGlobal, "global", s.limits.Global},
	}

	var rejection *domain.RateLimitError
	for _, c := range checks {
		if c.limit <= 0 {
			continue
		}
		if c.scope == ScopeKey && key == "" || c.scope == ScopeSession && session == "" {
			continue
		}
		n, reset, err := s.counter.Hit(ctx, c.id, s.limits.Window)
		if err != nil {
			s.logger.Warn("Rate limit counter unavailable, admitting request",
				zap.String("scope", c.scope), zap.Error(err))
			continue
		}
		if n > c.limit && rejection == nil {
			if reset <= 0 {
				reset = s.limits.Window
			}
			rejection = &domain.RateLimitError{Scope: c.scope, RetryAfter: reset}
		}
	}

	if rejection != nil {
		if s.rejected != nil {
			s.rejected.WithLabelValues(rejection.Scope).Inc()
		}
		return rejection
	}
	return nil
}
