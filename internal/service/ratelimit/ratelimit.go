package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultWindow      = 1 * time.Hour
	DefaultMaxRequests = int64(2)
	DefaultIdleTTL     = 2 * time.Hour
)

// Limiter gates actions against a per-account permit quota over a fixed
// window. Acquire is non-blocking: when no permit is available it reports
// false immediately and consumes nothing.
type Limiter interface {
	Acquire(ctx context.Context, accountID string, permits int64) (bool, error)
}
