package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/trialgate/pkg/config"
	"github.com/dmitrymomot/trialgate/pkg/logger"
)

const (
	storagePostgres = "postgres"
	storageMemory   = "memory"
)

// appConfig holds the settings that do not belong to a reusable package.
type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"trialgate"`
	LogLevel string `env:"LOG_LEVEL"`

	// Storage selects the persistence backend. "memory" keeps everything in
	// process and is meant for local development only.
	Storage        string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	AdminKey string `env:"ADMIN_KEY"`

	JWTSigningKey string `env:"JWT_SIGNING_KEY"`
	JWTIssuer     string `env:"JWT_ISSUER"`
	JWTAudience   string `env:"JWT_AUDIENCE"`
	OIDCIssuer    string `env:"OIDC_ISSUER"`
	OIDCClientID  string `env:"OIDC_CLIENT_ID"`

	DeviceIPWindow   time.Duration `env:"DEVICE_IP_WINDOW" envDefault:"24h"`
	TrialDefaultDays int           `env:"TRIAL_DEFAULT_DAYS" envDefault:"7"`
	ReadinessTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"3s"`
}

func loadAppConfig() (appConfig, error) {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return appConfig{}, err
	}
	switch cfg.Storage {
	case storagePostgres, storageMemory:
	default:
		return appConfig{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage)
	}
	if cfg.DeviceIPWindow <= 0 {
		return appConfig{}, fmt.Errorf("DEVICE_IP_WINDOW must be positive, got %s", cfg.DeviceIPWindow)
	}
	if cfg.TrialDefaultDays <= 0 {
		return appConfig{}, fmt.Errorf("TRIAL_DEFAULT_DAYS must be positive, got %d", cfg.TrialDefaultDays)
	}
	return cfg, nil
}

func newLogger(cfg appConfig, extractors ...logger.ContextExtractor) (*slog.Logger, error) {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithContextExtractors(extractors...),
	}
	if cfg.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		opts = append(opts, logger.WithLevel(level))
	}
	return logger.New(opts...), nil
}
