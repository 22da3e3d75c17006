package cache

import (
	"fmt"
	"strconv"
	"time"

	domcache "github.com/kailas-cloud/cardquery/internal/domain/cache"
)

const (
	fieldNormalized  = "normalized_query"
	fieldCompiled    = "compiled_query"
	fieldExplanation = "explanation"
	fieldConfidence  = "confidence"
	fieldSource      = "source"
	fieldHitCount    = "hit_count"
	fieldLastHitAt   = "last_hit_at"
	fieldExpiresAt   = "expires_at"
)

func entryToHash(e domcache.Entry) map[string]string {
	return map[string]string{
		fieldNormalized:  e.NormalizedQuery,
		fieldCompiled:    e.CompiledQuery,
		fieldExplanation: e.Explanation,
		fieldConfidence:  strconv.FormatFloat(e.Confidence, 'f', -1, 64),
		fieldSource:      e.Source,
		fieldHitCount:    strconv.FormatInt(e.HitCount, 10),
		fieldLastHitAt:   strconv.FormatInt(e.LastHitAt.UnixMilli(), 10),
		fieldExpiresAt:   strconv.FormatInt(e.ExpiresAt.UnixMilli(), 10),
	}
}

func entryFromHash(hash string, m map[string]string) (domcache.Entry, error) {
	confidence, err := strconv.ParseFloat(m[fieldConfidence], 64)
	if err != nil {
		return domcache.Entry{}, fmt.Errorf("parse confidence: %w", err)
	}
	hits, err := parseInt(m[fieldHitCount])
	if err != nil {
		return domcache.Entry{}, fmt.Errorf("parse hit_count: %w", err)
	}
	lastHit, err := parseInt(m[fieldLastHitAt])
	if err != nil {
		return domcache.Entry{}, fmt.Errorf("parse last_hit_at: %w", err)
	}
	expires, err := parseInt(m[fieldExpiresAt])
	if err != nil {
		return domcache.Entry{}, fmt.Errorf("parse expires_at: %w", err)
	}

	return domcache.Entry{
		QueryHash:       hash,
		NormalizedQuery: m[fieldNormalized],
		CompiledQuery:   m[fieldCompiled],
		Explanation:     m[fieldExplanation],
		Confidence:      confidence,
		Source:          m[fieldSource],
		HitCount:        hits,
		LastHitAt:       millis(lastHit),
		ExpiresAt:       millis(expires),
	}, nil
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func millis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
