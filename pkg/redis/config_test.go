package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/trialgate/pkg/redis"
)

func TestConnect_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without url", func(t *testing.T) {
		cfg := redis.Config{}
		assert.False(t, cfg.Enabled())

		_, err := redis.Connect(ctx, cfg)
		assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("malformed url", func(t *testing.T) {
		_, err := redis.Connect(ctx, redis.Config{ConnectionURL: "://nope"})
		assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
	})
}
