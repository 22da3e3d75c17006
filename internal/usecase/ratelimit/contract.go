package ratelimit

import (
	"context"
	"time"
)

// Counter counts hits in fixed windows.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}
