package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/trialgate/pkg/logger"
)

// Check is a named readiness dependency.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// LivenessHandler always answers 200 {"status":"alive"}.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, map[string]any{"status": "alive"})
	}
}

// ReadinessHandler runs all checks concurrently within timeout. It answers
// 200 when every check passes and 503 otherwise, listing each result.
func ReadinessHandler(log *slog.Logger, timeout time.Duration, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var (
			mu      sync.Mutex
			results = make(map[string]string, len(checks))
			failed  bool
		)
		var g errgroup.Group
		for _, c := range checks {
			g.Go(func() error {
				status := "ok"
				if err := c.Fn(ctx); err != nil {
					log.ErrorContext(ctx, "readiness check failed", slog.String("check", c.Name), logger.Error(err))
					status = "failing"
				}
				mu.Lock()
				defer mu.Unlock()
				results[c.Name] = status
				failed = failed || status != "ok"
				return nil
			})
		}
		_ = g.Wait()

		code, status := http.StatusOK, "ready"
		if failed {
			code, status = http.StatusServiceUnavailable, "not_ready"
		}
		writeStatus(w, code, map[string]any{"status": status, "checks": results})
	}
}

func writeStatus(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
