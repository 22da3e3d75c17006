// Package cache stores compiled translations in the shared KV store, one
// hash per normalized query, plus the short-lived in-flight locks that
// collapse concurrent misses across instances.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/domain"
	domcache "github.com/kailas-cloud/cardquery/internal/domain/cache"
)

var (
	entryPrefix = domain.KeyPrefix + "cache:"
	lockPrefix  = domain.KeyPrefix + "cache_lock:"
)

// store is the consumer interface for the translation cache (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	Del(ctx context.Context, key string) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// Repo implements the translate usecase cache contract.
type Repo struct {
	store      store
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a cache repository.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Repo {
	return &Repo{store: s, cacheTotal: cacheTotal, logger: logger, now: time.Now}
}

// Get returns the live entry for a query hash. Expired or unreadable
// entries count as misses.
func (r *Repo) Get(ctx context.Context, hash string) (domcache.Entry, bool, error) {
	m, err := r.store.HGetAll(ctx, entryKey(hash))
	if err != nil {
		return domcache.Entry{}, false, fmt.Errorf("hgetall cache %s: %w", hash, err)
	}
	if len(m) == 0 || m[fieldCompiled] == "" {
		r.inc("miss")
		return domcache.Entry{}, false, nil
	}

	e, err := entryFromHash(hash, m)
	if err != nil {
		r.logger.Warn("Failed to parse cache entry", zap.String("hash", hash), zap.Error(err))
		r.inc("miss")
		return domcache.Entry{}, false, nil
	}
	if e.Expired(r.now()) {
		r.inc("miss")
		return domcache.Entry{}, false, nil
	}

	r.inc("hit")
	return e, true, nil
}

// Put writes an entry and sets its TTL. HitCount of an existing entry is
// reset; callers overwrite only on recompute.
func (r *Repo) Put(ctx context.Context, e domcache.Entry, ttl time.Duration) error {
	now := r.now()
	e.ExpiresAt = now.Add(ttl)
	if e.QueryHash == "" {
		e.QueryHash = domcache.HashQuery(e.NormalizedQuery)
	}

	key := entryKey(e.QueryHash)
	if err := r.store.HSet(ctx, key, entryToHash(e)); err != nil {
		return fmt.Errorf("hset cache %s: %w", e.QueryHash, err)
	}
	if err := r.store.Expire(ctx, key, ttl, false); err != nil {
		return fmt.Errorf("expire cache %s: %w", e.QueryHash, err)
	}
	return nil
}

// Touch records a hit on an entry.
func (r *Repo) Touch(ctx context.Context, hash string) error {
	key := entryKey(hash)
	if _, err := r.store.HIncrBy(ctx, key, fieldHitCount, 1); err != nil {
		return fmt.Errorf("hincrby cache %s: %w", hash, err)
	}
	last := strconv.FormatInt(r.now().UnixMilli(), 10)
	if err := r.store.HSet(ctx, key, map[string]string{fieldLastHitAt: last}); err != nil {
		return fmt.Errorf("hset cache %s: %w", hash, err)
	}
	return nil
}

// Delete removes an entry.
func (r *Repo) Delete(ctx context.Context, hash string) error {
	if err := r.store.Del(ctx, entryKey(hash)); err != nil {
		return fmt.Errorf("del cache %s: %w", hash, err)
	}
	return nil
}

// AcquireLock marks hash as being computed by owner for at most ttl.
func (r *Repo) AcquireLock(ctx context.Context, hash, owner string, ttl time.Duration) (bool, error) {
	ok, err := r.store.SetNX(ctx, lockKey(hash), []byte(owner), ttl)
	if err != nil {
		return false, fmt.Errorf("lock cache %s: %w", hash, err)
	}
	return ok, nil
}

// ReleaseLock drops the in-flight marker.
func (r *Repo) ReleaseLock(ctx context.Context, hash string) error {
	if err := r.store.Del(ctx, lockKey(hash)); err != nil {
		return fmt.Errorf("unlock cache %s: %w", hash, err)
	}
	return nil
}

func (r *Repo) inc(result string) {
	if r.cacheTotal != nil {
		r.cacheTotal.WithLabelValues(result).Inc()
	}
}

func entryKey(hash string) string { return entryPrefix + hash }
func lockKey(hash string) string  { return lockPrefix + hash }
