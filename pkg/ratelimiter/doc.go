// Package ratelimiter implements a token bucket limiter with in-memory and
// redis-backed stores, plus net/http middleware.
//
// The service uses it to cap trial-code redemption attempts per subject so
// codes cannot be brute forced:
//
//	bucket, _ := ratelimiter.NewBucket(ratelimiter.NewRedisStore(client, "redeem:"), cfg)
//	r.With(ratelimiter.Middleware(bucket, bySubject, log)).Post("/redeem", h)
//
// The redis store performs refill and consumption in a single Lua script, so
// concurrent requests from several instances never overdraw a bucket.
package ratelimiter
