package db

import (
	"context"
	"time"
)

// Store is the key-value facade shared by the cache, the rate limiter,
// the in-flight locks and the generation budget.
//
//nolint:interfacebloat // consumers declare narrow sub-interfaces
type Store interface {
	Pinger
	KVStore
	HashStore
	Locker
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// IncrBy atomically increments a counter and returns the new value.
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	// PTTL returns the remaining time to live, or a negative duration when
	// the key has no expiry. ErrKeyNotFound when the key is missing.
	PTTL(ctx context.Context, key string) (time.Duration, error)
	Del(ctx context.Context, key string) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	// HGetAll returns an empty map for a missing key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, val int64) (int64, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Locker provides short-lived ownership markers (SET NX PX).
type Locker interface {
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}
