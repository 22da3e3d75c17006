package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/db/memory"
	"github.com/kailas-cloud/cardquery/internal/domain"
	rlrepo "github.com/kailas-cloud/cardquery/internal/repository/ratelimit"
)

func newTestService(t *testing.T, limits Limits) *Service {
	t.Helper()
	ms, err := memory.NewStore(1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(ms.Close)
	return New(rlrepo.New(ms), limits, nil, zap.NewNop())
}

func TestAllow_LPlusKConcurrent(t *testing.T) {
	const (
		limit = 20
		extra = 7
	)
	svc := newTestService(t, Limits{PerKey: limit, Window: time.Minute})

	var (
		admitted, rejected atomic.Int64
		badRetry           atomic.Bool
		wg                 sync.WaitGroup
	)
	for range limit + extra {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Allow(context.Background(), "caller", "")
			if err == nil {
				admitted.Add(1)
				return
			}
			var rle *domain.RateLimitError
			if !errors.As(err, &rle) || rle.RetryAfterSeconds() <= 0 {
				badRetry.Store(true)
			}
			rejected.Add(1)
		}()
	}
	wg.Wait()

	if admitted.Load() != limit || rejected.Load() != extra {
		t.Fatalf("admitted=%d rejected=%d, want %d and %d", admitted.Load(), rejected.Load(), limit, extra)
	}
	if badRetry.Load() {
		t.Error("every rejection must carry a positive retry-after")
	}
}

func TestAllow_ScopesAreIndependent(t *testing.T) {
	svc := newTestService(t, Limits{PerKey: 10, PerSession: 1, Global: 100, Window: time.Minute})
	ctx := context.Background()

	if err := svc.Allow(ctx, "caller", "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.Allow(ctx, "caller", "s1")
	var rle *domain.RateLimitError
	if !errors.As(err, &rle) || rle.Scope != ScopeSession {
		t.Fatalf("expected session rejection, got %v", err)
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Error("expected errors.Is ErrRateLimited")
	}
	if err := svc.Allow(ctx, "caller", "s2"); err != nil {
		t.Fatalf("other session should pass: %v", err)
	}
}

func TestAllow_Global(t *testing.T) {
	svc := newTestService(t, Limits{Global: 2, Window: time.Minute})
	ctx := context.Background()

	_ = svc.Allow(ctx, "a", "")
	_ = svc.Allow(ctx, "b", "")
	err := svc.Allow(ctx, "c", "")
	var rle *domain.RateLimitError
	if !errors.As(err, &rle) || rle.Scope != ScopeGlobal {
		t.Fatalf("expected global rejection, got %v", err)
	}
}

type failingCounter struct{}

func (failingCounter) Hit(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("connection lost")
}

func TestAllow_CounterErrorAdmits(t *testing.T) {
	svc := New(failingCounter{}, Limits{PerKey: 1, Global: 1}, nil, zap.NewNop())
	for range 3 {
		if err := svc.Allow(context.Background(), "k", "s"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}
