package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/cardquery/internal/db"
)

type counters interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps generation token counters in the KV store. Each counter key
// expires on its own: daily keys after dailyTTL, monthly keys after monthTTL.
type Store struct {
	kv       counters
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a budget store.
func New(kv counters, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{kv: kv, dailyTTL: dailyTTL, monthTTL: monthTTL}
}

// IncrBy adds val to the counter. The expiry is attached when the increment
// created the key; later increments leave it alone.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	total, err := s.kv.IncrBy(ctx, key, val)
	if err != nil {
		return fmt.Errorf("incr budget %s: %w", key, err)
	}
	if total != val {
		return nil
	}
	if err := s.kv.Expire(ctx, key, s.ttl(key), true); err != nil {
		return fmt.Errorf("expire budget %s: %w", key, err)
	}
	return nil
}

// Get returns the counter value, 0 when missing.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	raw, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("get budget %s: %w", key, err)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse budget %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) ttl(key string) time.Duration {
	if strings.Contains(key, ":monthly:") {
		return s.monthTTL
	}
	return s.dailyTTL
}
