// Package dbtest provides a migrated postgres pool for store integration
// tests. Tests are skipped unless TEST_PG_CONN_URL points at a disposable
// database. Packages share the database, so run them with `go test -p 1`.
package dbtest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/trialgate/internal/db"
	"github.com/dmitrymomot/trialgate/pkg/pg"
)

const envConnURL = "TEST_PG_CONN_URL"

// Pool connects, applies migrations and empties every table. The pool is
// closed when the test finishes.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(envConnURL)
	if url == "" {
		t.Skipf("%s not set, skipping postgres integration test", envConnURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := pg.Config{
		ConnectionString:  url,
		MaxOpenConns:      20,
		MaxIdleConns:      1,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   time.Minute,
		MaxConnLifetime:   time.Hour,
		RetryAttempts:     1,
		MigrationsPath:    db.MigrationsDir,
		MigrationsTable:   "schema_migrations",
	}

	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := pg.Migrate(ctx, pool, cfg, db.Migrations, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := pool.Exec(ctx, `TRUNCATE users, trial_codes, subscriptions, user_devices, user_device_ips RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	return pool
}
