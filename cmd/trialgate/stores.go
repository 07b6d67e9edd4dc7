package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/trialgate/internal/db"
	"github.com/dmitrymomot/trialgate/pkg/config"
	"github.com/dmitrymomot/trialgate/pkg/device"
	"github.com/dmitrymomot/trialgate/pkg/httpserver"
	"github.com/dmitrymomot/trialgate/pkg/identity"
	"github.com/dmitrymomot/trialgate/pkg/logger"
	"github.com/dmitrymomot/trialgate/pkg/pg"
	"github.com/dmitrymomot/trialgate/pkg/ratelimiter"
	"github.com/dmitrymomot/trialgate/pkg/redis"
	"github.com/dmitrymomot/trialgate/pkg/subscription"
	"github.com/dmitrymomot/trialgate/pkg/trialcode"
)

const rateLimitPrefix = "trialgate:ratelimit:"

// stores bundles the persistence layer selected by STORAGE_DRIVER.
type stores struct {
	codes   trialcode.Store
	subs    subscription.Store
	devices device.Store
	users   identity.UserStore
	rate    ratelimiter.Store

	checks  []httpserver.Check
	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg appConfig, log *slog.Logger) (*stores, error) {
	s := &stores{}

	switch cfg.Storage {
	case storageMemory:
		log.WarnContext(ctx, "using in-memory storage, state is lost on restart")
		s.codes = trialcode.NewMemoryStore()
		s.subs = subscription.NewMemoryStore()
		s.devices = device.NewMemoryStore()
		s.users = identity.NewMemoryUserStore()
	default:
		pool, pgCfg, err := openPostgres(ctx, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		s.checks = append(s.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})

		if cfg.MigrateOnStart {
			if err := migrate(ctx, pool, pgCfg, log); err != nil {
				s.Close()
				return nil, err
			}
		}

		s.codes = trialcode.NewPGStore(pool)
		s.subs = subscription.NewPGStore(pool)
		s.devices = device.NewPGStore(pool, pgCfg.TxRetryAttempts)
		s.users = identity.NewPGUserStore(pool)
	}

	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		s.Close()
		return nil, fmt.Errorf("load redis config: %w", err)
	}
	if redisCfg.Enabled() {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() {
			if err := client.Close(); err != nil {
				log.Error("failed to close redis client", logger.Error(err))
			}
		})
		s.checks = append(s.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
		s.rate = ratelimiter.NewRedisStore(client, rateLimitPrefix)
	} else {
		mem := ratelimiter.NewMemoryStore()
		s.closers = append(s.closers, mem.Close)
		s.rate = mem
	}

	return s, nil
}

func openPostgres(ctx context.Context, log *slog.Logger) (*pgxpool.Pool, pg.Config, error) {
	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return nil, pg.Config{}, fmt.Errorf("load postgres config: %w", err)
	}
	pgCfg.MigrationsPath = db.MigrationsDir

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, pg.Config{}, err
	}
	log.InfoContext(ctx, "connected to postgres", logger.Component("pg"))
	return pool, pgCfg, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool, pgCfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, pgCfg, db.Migrations, log.With(logger.Component("migrations")))
}
