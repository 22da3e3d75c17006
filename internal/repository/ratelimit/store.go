// Package ratelimit keeps fixed-window request counters in the KV store.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/cardquery/internal/db"
	"github.com/kailas-cloud/cardquery/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "ratelimit:"

// store is the consumer interface for window counters (ISP).
type store interface {
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	PTTL(ctx context.Context, key string) (time.Duration, error)
}

// Store counts hits per window. A window starts with the first hit on a
// key and lasts exactly one window length; INCR and EXPIRE NX keep the
// count atomic across instances.
type Store struct {
	store store
}

// New creates a window counter store.
func New(s store) *Store {
	return &Store{store: s}
}

// Hit counts one request against key and returns the count inside the
// current window and the time until the window resets.
func (s *Store) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := keyPrefix + key
	n, err := s.store.IncrBy(ctx, k, 1)
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit INCR %s: %w", key, err)
	}
	if err := s.store.Expire(ctx, k, window, true); err != nil {
		return 0, 0, fmt.Errorf("ratelimit EXPIRE %s: %w", key, err)
	}

	ttl, err := s.store.PTTL(ctx, k)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		// expired between INCR and PTTL: the next hit opens a new window
		ttl = 0
	case err != nil:
		return 0, 0, fmt.Errorf("ratelimit PTTL %s: %w", key, err)
	case ttl < 0:
		ttl = window
	}
	return n, ttl, nil
}
