package ratelimiter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trialgate/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newBucket(t *testing.T, clk *clock, cfg ratelimiter.Config) *ratelimiter.Bucket {
	t.Helper()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0), ratelimiter.WithClock(clk.Now))
	t.Cleanup(store.Close)
	b, err := ratelimiter.NewBucket(store, cfg)
	require.NoError(t, err)
	return b
}

func TestNewBucket_Validation(t *testing.T) {
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	defer store.Close()

	tests := []struct {
		name string
		cfg  ratelimiter.Config
	}{
		{"zero capacity", ratelimiter.Config{Capacity: 0, RefillRate: 1, RefillInterval: time.Second}},
		{"zero rate", ratelimiter.Config{Capacity: 1, RefillRate: 0, RefillInterval: time.Second}},
		{"zero interval", ratelimiter.Config{Capacity: 1, RefillRate: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ratelimiter.NewBucket(store, tt.cfg)
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
		})
	}

	_, err := ratelimiter.NewBucket(nil, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second})
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
}

func TestBucket_AllowAndRefill(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := newBucket(t, clk, ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Minute})

	for i := range 3 {
		res, err := b.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, res.Allowed(), "request %d", i)
	}

	res, err := b.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed())

	// Other keys have their own bucket.
	res, err = b.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, res.Allowed())

	clk.Advance(time.Minute)
	res, err = b.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.Equal(t, 0, res.Remaining)

	res, err = b.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed())

	require.NoError(t, b.Reset(ctx, "user-1"))
	res, err = b.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Remaining)

	_, err = b.AllowN(ctx, "user-1", 0)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
}

func TestBucket_Concurrent(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: time.Now()}
	b := newBucket(t, clk, ratelimiter.Config{Capacity: 10, RefillRate: 1, RefillInterval: time.Hour})

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(ctx, "shared")
			if err == nil && res.Allowed() {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), allowed.Load())
}

type failingStore struct{}

func (failingStore) ConsumeTokens(context.Context, string, int, ratelimiter.Config) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("connection refused")
}

func (failingStore) Reset(context.Context, string) error { return nil }

func TestMiddleware(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newBucket(t, clk, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	keyFunc := func(r *http.Request) string { return r.Header.Get("X-Subject") }
	h := ratelimiter.Middleware(b, keyFunc, nil)(next)

	do := func(subject string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/redeem", nil)
		if subject != "" {
			req.Header.Set("X-Subject", subject)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("user-1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = do("user-1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "too_many_requests", body["error"])

	// Empty key bypasses the limiter.
	assert.Equal(t, http.StatusNoContent, do("").Code)

	t.Run("store failure", func(t *testing.T) {
		fb, err := ratelimiter.NewBucket(failingStore{}, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour})
		require.NoError(t, err)
		h := ratelimiter.Middleware(fb, keyFunc, nil)(next)

		req := httptest.NewRequest(http.MethodPost, "/redeem", nil)
		req.Header.Set("X-Subject", "user-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
