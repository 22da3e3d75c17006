// Package cache defines the cached translation result.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Entry is a cached compile result for one normalized query.
type Entry struct {
	QueryHash       string    `json:"query_hash"`
	NormalizedQuery string    `json:"normalized_query"`
	CompiledQuery   string    `json:"compiled_query"`
	Explanation     string    `json:"explanation"`
	Confidence      float64   `json:"confidence"`
	Source          string    `json:"source"`
	HitCount        int64     `json:"hit_count"`
	LastHitAt       time.Time `json:"last_hit_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its TTL at now.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// HashQuery returns the cache key hash of a normalized query.
func HashQuery(normalized string) string {
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}
