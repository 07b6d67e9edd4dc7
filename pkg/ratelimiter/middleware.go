package ratelimiter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// KeyFunc extracts a rate limit key from the request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// Middleware limits requests per key and answers 429 with a JSON error body
// once the bucket is empty. Store failures fail closed with 500.
func Middleware(b *Bucket, keyFunc KeyFunc, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := b.Allow(r.Context(), key)
			if err != nil {
				log.ErrorContext(r.Context(), "rate limiter store failed", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "internal_error")
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				if retryAfter := int(result.RetryAfter().Seconds()); retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				writeError(w, http.StatusTooManyRequests, "too_many_requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
}
