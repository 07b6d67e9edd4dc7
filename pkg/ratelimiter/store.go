package ratelimiter

import (
	"context"
	"time"
)

// Store persists bucket state.
type Store interface {
	// ConsumeTokens refills the bucket for elapsed intervals, then takes
	// tokens from it. A negative remaining count means the request is denied.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset clears the state for key.
	Reset(ctx context.Context, key string) error
}
