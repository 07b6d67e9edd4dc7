package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript runs the refill-and-take step atomically on the server.
// KEYS[1] bucket hash; ARGV: capacity, refill rate, interval ms, tokens, now ms.
// Returns {remaining, last_refill_ms}.
var consumeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local tokens = tonumber(ARGV[4])
local now = tonumber(ARGV[5])

local state = redis.call("HMGET", KEYS[1], "tokens", "refill")
local current = tonumber(state[1])
local refill = tonumber(state[2])
if current == nil then
  current = capacity
  refill = now
end

local intervals = math.floor((now - refill) / interval)
local cap = math.floor(capacity / rate) + 1
if intervals > cap then intervals = cap end
if intervals > 0 then
  current = math.min(current + intervals * rate, capacity)
  refill = now
end

local remaining = current - tokens
if remaining >= 0 then
  current = remaining
end

redis.call("HSET", KEYS[1], "tokens", current, "refill", refill)
redis.call("PEXPIRE", KEYS[1], interval * (cap + 1))
return {remaining, refill}
`)

// RedisStore keeps buckets in redis so limits hold across restarts.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore returns a store writing keys under prefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (rs *RedisStore) ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (int, time.Time, error) {
	interval := config.RefillInterval.Milliseconds()
	now := time.Now().UnixMilli()

	res, err := consumeScript.Run(ctx, rs.client, []string{rs.prefix + key},
		config.Capacity, config.RefillRate, interval, tokens, now,
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("%w: unexpected script reply %v", ErrStoreUnavailable, res)
	}

	resetAt := time.UnixMilli(res[1] + interval)
	return int(res[0]), resetAt, nil
}

func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.prefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
