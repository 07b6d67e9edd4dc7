package ratelimiter

import "time"

// Result contains the result of a rate limit check.
type Result struct {
	Limit     int       // Bucket capacity
	Remaining int       // Tokens left; negative when the request was denied
	ResetAt   time.Time // Next refill
}

// Allowed reports whether the consumed tokens were available.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before the next request, or 0 if allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Config defines the token bucket. Field tags let it be loaded with
// config.Load; the defaults guard code redemption against brute force.
type Config struct {
	Capacity       int           `env:"REDEEM_RATE_CAPACITY" envDefault:"5"`           // Burst size
	RefillRate     int           `env:"REDEEM_RATE_REFILL" envDefault:"5"`             // Tokens added per interval
	RefillInterval time.Duration `env:"REDEEM_RATE_REFILL_INTERVAL" envDefault:"15m"` // Refill period
}
