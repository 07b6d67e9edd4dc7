// Package redis connects to redis with github.com/redis/go-redis/v9 and
// exposes a readiness probe. Redis is optional in this service: it backs
// the redemption rate limiter when REDIS_URL is set.
package redis
