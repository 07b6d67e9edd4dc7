package access_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trialgate/modules/access"
	"github.com/dmitrymomot/trialgate/pkg/adminkey"
	"github.com/dmitrymomot/trialgate/pkg/cookie"
	"github.com/dmitrymomot/trialgate/pkg/device"
	"github.com/dmitrymomot/trialgate/pkg/entitlement"
	"github.com/dmitrymomot/trialgate/pkg/identity"
	"github.com/dmitrymomot/trialgate/pkg/ratelimiter"
	"github.com/dmitrymomot/trialgate/pkg/subscription"
	"github.com/dmitrymomot/trialgate/pkg/trialcode"
)

const (
	signingKey   = "test-signing-key"
	adminSecret  = "admin-secret"
	cookieSecret = "this-is-a-very-long-secret-key-32-chars-long"
)

type recorder struct {
	redemptions []string
	grants      []string
	issued      int
}

func (r *recorder) Redemption(outcome string) { r.redemptions = append(r.redemptions, outcome) }
func (r *recorder) Grant(plan string)         { r.grants = append(r.grants, plan) }
func (r *recorder) CodesIssued(n int)         { r.issued += n }

type app struct {
	t        *testing.T
	router   http.Handler
	recorder *recorder
}

func newApp(t *testing.T) *app {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	codes := trialcode.NewService(trialcode.NewMemoryStore(), trialcode.WithClock(clock))
	subs := subscription.NewService(subscription.NewMemoryStore(), subscription.WithClock(clock))
	limiter := device.NewLimiter(device.NewMemoryStore(), device.WithClock(clock))

	verifier, err := identity.NewHMACVerifier(signingKey)
	require.NoError(t, err)

	cookies, err := cookie.New([]string{cookieSecret})
	require.NoError(t, err)

	admin, err := adminkey.New(adminSecret)
	require.NoError(t, err)

	store := ratelimiter.NewMemoryStore()
	t.Cleanup(store.Close)
	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       3,
		RefillRate:     1,
		RefillInterval: time.Hour,
	})
	require.NoError(t, err)

	gate := entitlement.NewGate(subs, limiter, cookies,
		entitlement.WithIPFunc(func(r *http.Request) string { return r.Header.Get("X-Test-IP") }),
	)

	rec := &recorder{}
	router := access.Router(access.RouterOptions{
		Codes:         codes,
		Subscriptions: subs,
		Devices:       limiter,
		Authenticate:  identity.Middleware(verifier),
		Gate:          gate.Middleware,
		AdminOnly:     admin.Middleware,
		RedeemLimit:   ratelimiter.Middleware(bucket, access.RedeemRateKey, nil),
		Recorder:      rec,
	})

	return &app{t: t, router: router, recorder: rec}
}

func token(t *testing.T, subject string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, identity.Claims{
		Email: subject + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte(signingKey))
	require.NoError(t, err)
	return signed
}

type req struct {
	method      string
	path        string
	body        any
	subject     string
	admin       bool
	fingerprint string
	ip          string
	cookies     []*http.Cookie
}

func (a *app) do(rq req) *httptest.ResponseRecorder {
	a.t.Helper()

	var body bytes.Buffer
	if rq.body != nil {
		require.NoError(a.t, json.NewEncoder(&body).Encode(rq.body))
	}
	r := httptest.NewRequest(rq.method, rq.path, &body)
	if rq.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if rq.subject != "" {
		r.Header.Set("Authorization", "Bearer "+token(a.t, rq.subject))
	}
	if rq.admin {
		r.Header.Set(adminkey.Header, adminSecret)
	}
	if rq.fingerprint != "" {
		r.Header.Set(entitlement.DefaultFingerprintHeader, rq.fingerprint)
	}
	if rq.ip == "" {
		rq.ip = "10.0.0.1"
	}
	r.Header.Set("X-Test-IP", rq.ip)
	for _, c := range rq.cookies {
		r.AddCookie(c)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorReason(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode(t, w)["error"].(string)
}

func (a *app) issueCode(days int) string {
	a.t.Helper()
	w := a.do(req{method: http.MethodPost, path: "/admin/codes", admin: true, body: map[string]any{"days": days}})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	codes := decode(a.t, w)["codes"].([]any)
	require.Len(a.t, codes, 1)
	return codes[0].(map[string]any)["code"].(string)
}

func TestRedeem(t *testing.T) {
	t.Parallel()

	t.Run("starts a trial once", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		code := a.issueCode(7)

		w := a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "alice", body: map[string]string{"code": code}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		sub := decode(t, w)
		assert.Equal(t, "alice", sub["user_id"])
		assert.Equal(t, "trial", sub["plan"])
		assert.Equal(t, "active", sub["status"])
		assert.Equal(t, true, sub["is_trial"])
		assert.EqualValues(t, 7, sub["days_remaining"])
		assert.EqualValues(t, 1, sub["device_limit"])
		assert.EqualValues(t, 1, sub["ip_limit"])

		w = a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "alice", body: map[string]string{"code": code}})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "invalid_code", errorReason(t, w))

		w = a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "bob", body: map[string]string{"code": code}})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "invalid_code", errorReason(t, w))

		w = a.do(req{method: http.MethodGet, path: "/admin/codes/" + code, admin: true})
		require.Equal(t, http.StatusOK, w.Code)
		audit := decode(t, w)
		assert.Equal(t, true, audit["used"])
		assert.Equal(t, "alice", audit["used_by"])
		assert.EqualValues(t, 7, audit["duration_days"])

		assert.Equal(t, []string{"success", "invalid_code", "invalid_code"}, a.recorder.redemptions)
		assert.Equal(t, []string{"trial"}, a.recorder.grants)
	})

	t.Run("accepts lower case input", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		code := a.issueCode(3)

		w := a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "alice",
			body: map[string]string{"code": "  " + strings.ToLower(code) + " "}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.EqualValues(t, 3, decode(t, w)["days_remaining"])
	})

	t.Run("requires a credential", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)

		w := a.do(req{method: http.MethodPost, path: "/api/redeem", body: map[string]string{"code": "X"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_credential", errorReason(t, w))
	})

	t.Run("requires a code", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)

		w := a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "alice", body: map[string]string{"code": "  "}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "missing_input", errorReason(t, w))
	})

	t.Run("unknown code", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)

		w := a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "alice", body: map[string]string{"code": "NOPE"}})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "invalid_code", errorReason(t, w))
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)

		w := a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "alice", body: map[string]int{"code": 5}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", errorReason(t, w))
	})

	t.Run("rate limited per subject", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)

		for range 3 {
			w := a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "mallory", body: map[string]string{"code": "GUESS"}})
			require.Equal(t, http.StatusForbidden, w.Code)
		}
		w := a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "mallory", body: map[string]string{"code": "GUESS"}})
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "too_many_requests", errorReason(t, w))

		w = a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "alice", body: map[string]string{"code": "GUESS"}})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestSubscription(t *testing.T) {
	t.Parallel()

	a := newApp(t)

	w := a.do(req{method: http.MethodGet, path: "/api/subscription", subject: "alice"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no_active_subscription", errorReason(t, w))

	w = a.do(req{method: http.MethodPost, path: "/admin/subscriptions", admin: true, body: map[string]any{"user_id": "alice"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"paid"}, a.recorder.grants)

	w = a.do(req{method: http.MethodGet, path: "/api/subscription", subject: "alice"})
	require.Equal(t, http.StatusOK, w.Code)
	sub := decode(t, w)
	assert.Equal(t, "paid", sub["plan"])
	assert.Equal(t, false, sub["is_trial"])
	assert.EqualValues(t, access.DefaultPaidDays, sub["days_remaining"])
	assert.EqualValues(t, 2, sub["device_limit"])
	assert.EqualValues(t, 2, sub["ip_limit"])
}

func TestChat(t *testing.T) {
	t.Parallel()

	chat := func(subject, fingerprint, ip string, cookies ...*http.Cookie) req {
		return req{
			method:      http.MethodPost,
			path:        "/api/chat",
			subject:     subject,
			fingerprint: fingerprint,
			ip:          ip,
			cookies:     cookies,
			body:        map[string]string{"message": "hello"},
		}
	}

	t.Run("requires a fingerprint", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)

		w := a.do(chat("alice", "", ""))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "missing_input", errorReason(t, w))
	})

	t.Run("requires a subscription", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)

		w := a.do(chat("alice", "fp-1", ""))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "no_active_subscription", errorReason(t, w))
	})

	t.Run("trial allows one device", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		code := a.issueCode(7)
		w := a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "alice", body: map[string]string{"code": code}})
		require.Equal(t, http.StatusOK, w.Code)

		w = a.do(chat("alice", "fp-1", "10.0.0.1"))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "[trial] hello", decode(t, w)["reply"])
		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)

		w = a.do(chat("alice", "fp-1", "10.0.0.1", cookies...))
		assert.Equal(t, http.StatusOK, w.Code)

		w = a.do(chat("alice", "fp-2", "10.0.0.1"))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "device_limit_reached", errorReason(t, w))

		w = a.do(req{method: http.MethodGet, path: "/api/devices", subject: "alice", fingerprint: "fp-1", ip: "10.0.0.1", cookies: cookies})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		devices := decode(t, w)["devices"].([]any)
		require.Len(t, devices, 1)
		assert.Equal(t, "10.0.0.1", devices[0].(map[string]any)["ip"])
		assert.Equal(t, true, devices[0].(map[string]any)["current"])
	})

	t.Run("trial device roaming across ips is denied", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		code := a.issueCode(7)
		w := a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "alice", body: map[string]string{"code": code}})
		require.Equal(t, http.StatusOK, w.Code)

		w = a.do(chat("alice", "fp-1", "10.0.0.1"))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)

		for _, ip := range []string{"10.0.0.2", "10.0.0.3", "10.0.0.4"} {
			w = a.do(chat("alice", "fp-1", ip, cookies...))
			assert.Equal(t, http.StatusForbidden, w.Code, ip)
			assert.Equal(t, "ip_limit_reached", errorReason(t, w), ip)
		}

		// The original address is still one of two seen in the window.
		w = a.do(chat("alice", "fp-1", "10.0.0.1", cookies...))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("ip limit spans devices after a downgrade", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		w := a.do(req{method: http.MethodPost, path: "/admin/subscriptions", admin: true, body: map[string]any{"user_id": "alice"}})
		require.Equal(t, http.StatusOK, w.Code)

		w = a.do(chat("alice", "fp-1", "10.0.0.1"))
		require.Equal(t, http.StatusOK, w.Code)
		first := w.Result().Cookies()
		w = a.do(chat("alice", "fp-2", "10.0.0.2"))
		require.Equal(t, http.StatusOK, w.Code)

		code := a.issueCode(7)
		w = a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "alice", body: map[string]string{"code": code}})
		require.Equal(t, http.StatusOK, w.Code)

		w = a.do(chat("alice", "fp-1", "10.0.0.1", first...))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "ip_limit_reached", errorReason(t, w))
	})

	t.Run("paid plan lists devices", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		w := a.do(req{method: http.MethodPost, path: "/admin/subscriptions", admin: true, body: map[string]any{"user_id": "alice", "days": 10}})
		require.Equal(t, http.StatusOK, w.Code)

		w = a.do(chat("alice", "fp-1", "10.0.0.1"))
		require.Equal(t, http.StatusOK, w.Code)
		first := w.Result().Cookies()

		w = a.do(chat("alice", "fp-2", "10.0.0.2"))
		require.Equal(t, http.StatusOK, w.Code)

		w = a.do(req{method: http.MethodGet, path: "/api/devices", subject: "alice", fingerprint: "fp-1", ip: "10.0.0.1", cookies: first})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode(t, w)
		assert.EqualValues(t, 2, body["device_limit"])
		devices := body["devices"].([]any)
		require.Len(t, devices, 2)

		current := 0
		for _, d := range devices {
			if d.(map[string]any)["current"] == true {
				current++
			}
		}
		assert.Equal(t, 1, current)
	})

	t.Run("rejects empty message", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		w := a.do(req{method: http.MethodPost, path: "/admin/subscriptions", admin: true, body: map[string]any{"user_id": "alice"}})
		require.Equal(t, http.StatusOK, w.Code)

		r := chat("alice", "fp-1", "")
		r.body = map[string]string{"message": ""}
		w = a.do(r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "missing_input", errorReason(t, w))
	})
}

func TestAdmin(t *testing.T) {
	t.Parallel()

	a := newApp(t)

	t.Run("requires the admin key", func(t *testing.T) {
		w := a.do(req{method: http.MethodPost, path: "/admin/codes", subject: "alice"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "not_admin", errorReason(t, w))
	})

	t.Run("defaults to one seven day code", func(t *testing.T) {
		w := a.do(req{method: http.MethodPost, path: "/admin/codes", admin: true})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		codes := decode(t, w)["codes"].([]any)
		require.Len(t, codes, 1)
		c := codes[0].(map[string]any)
		assert.EqualValues(t, trialcode.DefaultDurationDays, c["duration_days"])
		assert.Equal(t, false, c["used"])
	})

	t.Run("generates a batch", func(t *testing.T) {
		before := a.recorder.issued
		w := a.do(req{method: http.MethodPost, path: "/admin/codes", admin: true, body: map[string]any{"count": 5, "days": 14}})
		require.Equal(t, http.StatusCreated, w.Code)

		codes := decode(t, w)["codes"].([]any)
		require.Len(t, codes, 5)
		seen := map[string]bool{}
		for _, c := range codes {
			seen[c.(map[string]any)["code"].(string)] = true
		}
		assert.Len(t, seen, 5)
		assert.Equal(t, before+5, a.recorder.issued)
	})

	t.Run("stores a chosen code", func(t *testing.T) {
		before := a.recorder.issued
		w := a.do(req{method: http.MethodPost, path: "/admin/codes", admin: true, body: map[string]any{"code": " trial-abcd1234 "}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		codes := decode(t, w)["codes"].([]any)
		require.Len(t, codes, 1)
		c := codes[0].(map[string]any)
		assert.Equal(t, "TRIAL-ABCD1234", c["code"])
		assert.EqualValues(t, trialcode.DefaultDurationDays, c["duration_days"])
		assert.Equal(t, before+1, a.recorder.issued)

		w = a.do(req{method: http.MethodPost, path: "/api/redeem", subject: "carol", body: map[string]string{"code": "TRIAL-ABCD1234"}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "trial", decode(t, w)["plan"])

		w = a.do(req{method: http.MethodGet, path: "/admin/codes/TRIAL-ABCD1234", admin: true})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["used"])
	})

	t.Run("chosen code must be unique", func(t *testing.T) {
		body := map[string]any{"code": "TRIAL-DUPE0001", "days": 3}
		w := a.do(req{method: http.MethodPost, path: "/admin/codes", admin: true, body: body})
		require.Equal(t, http.StatusCreated, w.Code)

		w = a.do(req{method: http.MethodPost, path: "/admin/codes", admin: true, body: body})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "conflict", errorReason(t, w))
	})

	t.Run("chosen code with a count", func(t *testing.T) {
		w := a.do(req{method: http.MethodPost, path: "/admin/codes", admin: true, body: map[string]any{"code": "TRIAL-MANY0001", "count": 2}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", errorReason(t, w))
	})

	t.Run("rejects oversized batch", func(t *testing.T) {
		w := a.do(req{method: http.MethodPost, path: "/admin/codes", admin: true, body: map[string]any{"count": 1001}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", errorReason(t, w))
	})

	t.Run("unknown code", func(t *testing.T) {
		w := a.do(req{method: http.MethodGet, path: "/admin/codes/MISSING", admin: true})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", errorReason(t, w))
	})

	t.Run("grant requires user id", func(t *testing.T) {
		w := a.do(req{method: http.MethodPost, path: "/admin/subscriptions", admin: true, body: map[string]any{"days": 30}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "missing_input", errorReason(t, w))
	})

	t.Run("grant rejects negative days", func(t *testing.T) {
		w := a.do(req{method: http.MethodPost, path: "/admin/subscriptions", admin: true, body: map[string]any{"user_id": "bob", "days": -1}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", errorReason(t, w))
	})
}
