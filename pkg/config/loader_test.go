package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trialgate/pkg/config"
)

type limiterConfig struct {
	Window   time.Duration `env:"CFG_TEST_WINDOW" envDefault:"24h"`
	Capacity int           `env:"CFG_TEST_CAPACITY" envDefault:"5"`
	Enabled  bool          `env:"CFG_TEST_ENABLED" envDefault:"true"`
}

type requiredConfig struct {
	AdminKey string `env:"CFG_TEST_ADMIN_KEY,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config.Reset()

		var cfg limiterConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 24*time.Hour, cfg.Window)
		assert.Equal(t, 5, cfg.Capacity)
		assert.True(t, cfg.Enabled)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		config.Reset()
		t.Setenv("CFG_TEST_WINDOW", "1h")
		t.Setenv("CFG_TEST_CAPACITY", "10")
		t.Setenv("CFG_TEST_ENABLED", "false")

		var cfg limiterConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, time.Hour, cfg.Window)
		assert.Equal(t, 10, cfg.Capacity)
		assert.False(t, cfg.Enabled)
	})

	t.Run("cached per type", func(t *testing.T) {
		config.Reset()
		t.Setenv("CFG_TEST_CAPACITY", "7")

		var first limiterConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("CFG_TEST_CAPACITY", "99")

		var second limiterConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, 7, second.Capacity)
	})

	t.Run("missing required value", func(t *testing.T) {
		config.Reset()

		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[requiredConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoad_Panics(t *testing.T) {
	config.Reset()

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}
