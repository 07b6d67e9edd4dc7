package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu     sync.Mutex
	loaded = make(map[reflect.Type]any)

	dotenvOnce sync.Once
)

// Load populates v from environment variables using `env` struct tags.
// The default .env file is read once per process if present. Each config
// type is parsed once and served from the cache afterwards, so components
// that load the same struct independently observe identical values.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// A missing .env is normal outside local development.
		_ = godotenv.Load()
	})

	key := reflect.TypeFor[T]()

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := loaded[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	loaded[key] = parsed
	*v = parsed

	return nil
}

// MustLoad is Load that panics on failure. Use it for configuration the
// process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: failed to load %T: %v", v, err))
	}
}

// Reset drops every cached config so the next Load re-reads the environment.
// Intended for tests that mutate env vars between cases.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	clear(loaded)
}
