package feedback

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sweeper fails items left in processing by a crashed or stuck processor.
type Sweeper struct {
	items      Repo
	staleAfter time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewSweeper creates a sweeper for items processing longer than staleAfter.
func NewSweeper(items Repo, staleAfter time.Duration, logger *zap.Logger) *Sweeper {
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &Sweeper{items: items, staleAfter: staleAfter, logger: logger, now: time.Now}
}

// SweepOnce fails every stale item and returns how many were failed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.items.FailStale(ctx, s.now().Add(-s.staleAfter),
		fmt.Sprintf("processing exceeded %s", s.staleAfter))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Warn("Failed stale feedback items", zap.Int64("count", n))
	}
	return n, nil
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("Feedback sweep failed", zap.Error(err))
			}
		}
	}
}
