package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trialgate/pkg/config"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", storageMemory)
	t.Setenv("ADMIN_KEY", "admin-secret")
	t.Setenv("JWT_SIGNING_KEY", "signing-key")
	t.Setenv("COOKIE_SECRETS", "this-is-a-very-long-secret-key-32-chars-long")
	t.Setenv("REDIS_URL", "")
	t.Setenv("OIDC_ISSUER", "")
	config.Reset()
	t.Cleanup(config.Reset)
}

func TestVersionCmd(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := Version, BuildTime, GitCommit
	defer func() {
		Version, BuildTime, GitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	Version = "1.2.3"
	BuildTime = "2026-01-01"
	GitCommit = "abcdef"

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "trialgate 1.2.3")
	assert.Contains(t, out.String(), "Built: 2026-01-01")
	assert.Contains(t, out.String(), "Commit: abcdef")
}

func TestGrantRequiresUser(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"grant"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user")
}

func TestLoadAppConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setTestEnv(t)

		cfg, err := loadAppConfig()
		require.NoError(t, err)
		assert.Equal(t, "trialgate", cfg.Name)
		assert.Equal(t, 24*time.Hour, cfg.DeviceIPWindow)
		assert.Equal(t, 7, cfg.TrialDefaultDays)
		assert.True(t, cfg.MigrateOnStart)
	})

	t.Run("unknown storage driver", func(t *testing.T) {
		setTestEnv(t)
		t.Setenv("STORAGE_DRIVER", "sqlite")

		_, err := loadAppConfig()
		assert.ErrorContains(t, err, "STORAGE_DRIVER")
	})

	t.Run("non-positive ip window", func(t *testing.T) {
		setTestEnv(t)
		t.Setenv("DEVICE_IP_WINDOW", "0s")

		_, err := loadAppConfig()
		assert.ErrorContains(t, err, "DEVICE_IP_WINDOW")
	})

	t.Run("bad log level", func(t *testing.T) {
		setTestEnv(t)
		t.Setenv("LOG_LEVEL", "loud")

		cfg, err := loadAppConfig()
		require.NoError(t, err)
		_, err = newLogger(cfg)
		assert.ErrorContains(t, err, "LOG_LEVEL")
	})
}

func TestRouter(t *testing.T) {
	setTestEnv(t)

	cfg, err := loadAppConfig()
	require.NoError(t, err)
	log := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	st, err := openStores(ctx, cfg, log)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	deps, err := loadDependencies(ctx, cfg, log, st)
	require.NoError(t, err)
	h, err := newRouter(deps)
	require.NoError(t, err)

	get := func(path string, header ...string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		for i := 0; i+1 < len(header); i += 2 {
			r.Header.Set(header[i], header[i+1])
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	t.Run("liveness", func(t *testing.T) {
		w := get("/health/live")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("readiness without external dependencies", func(t *testing.T) {
		w := get("/health/ready")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"ready"`)
	})

	t.Run("api requires a bearer token", func(t *testing.T) {
		w := get("/api/subscription")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"invalid_credential"}`, w.Body.String())
	})

	t.Run("admin requires the key", func(t *testing.T) {
		w := get("/admin/codes/TRIAL-AAAAAAAA")
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = get("/admin/codes/TRIAL-AAAAAAAA", "X-Admin-Key", "admin-secret")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("metrics expose request counters", func(t *testing.T) {
		get("/health/live")

		w := get("/metrics")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "trialgate_http_requests_total")
	})
}

func TestLoadDependenciesRequiresAdminKey(t *testing.T) {
	setTestEnv(t)
	t.Setenv("ADMIN_KEY", "")

	cfg, err := loadAppConfig()
	require.NoError(t, err)
	log := slog.New(slog.DiscardHandler)

	st, err := openStores(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	_, err = loadDependencies(context.Background(), cfg, log, st)
	assert.Error(t, err)
}
