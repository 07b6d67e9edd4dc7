package identity

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/trialgate/pkg/logger"
)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	users UserStore
	log   *slog.Logger
}

// WithUserStore records every verified subject in store. A failed write is
// logged and does not block the request.
func WithUserStore(store UserStore) MiddlewareOption {
	return func(c *middlewareConfig) { c.users = store }
}

// WithLogger sets the logger used for user sync failures.
func WithLogger(log *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// Middleware verifies the bearer token and stores the subject in the
// request context. Requests without a valid credential get 401 with
// {"error":"invalid_credential"}.
func Middleware(v Verifier, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if v == nil {
		panic("identity: Verifier is required")
	}
	cfg := &middlewareConfig{log: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			subject, err := v.Verify(r.Context(), token)
			if err != nil {
				cfg.log.DebugContext(r.Context(), "credential rejected", logger.Error(err))
				writeUnauthorized(w)
				return
			}

			ctx := WithSubject(r.Context(), subject)
			if cfg.users != nil {
				if err := cfg.users.Upsert(ctx, subject); err != nil {
					cfg.log.WarnContext(ctx, "failed to sync user", logger.SubjectID(subject.ID), logger.Error(err))
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_credential"})
}
