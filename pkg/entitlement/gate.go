package entitlement

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/trialgate/pkg/clientip"
	"github.com/dmitrymomot/trialgate/pkg/device"
	"github.com/dmitrymomot/trialgate/pkg/identity"
	"github.com/dmitrymomot/trialgate/pkg/logger"
	"github.com/dmitrymomot/trialgate/pkg/subscription"
)

// Gate admits requests from subjects with an active subscription whose
// device and IP usage is within the plan limits.
type Gate struct {
	subs    SubscriptionChecker
	devices DeviceLimiter
	cookies DeviceCookies

	fingerprintHeader string
	cookieName        string
	ip                func(*http.Request) string
	newDeviceID       func() string
	recorder          Recorder
	log               *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithFingerprintHeader overrides the header carrying the client fingerprint.
func WithFingerprintHeader(name string) Option {
	return func(g *Gate) {
		if name != "" {
			g.fingerprintHeader = name
		}
	}
}

// WithCookieName overrides the device identity cookie name.
func WithCookieName(name string) Option {
	return func(g *Gate) {
		if name != "" {
			g.cookieName = name
		}
	}
}

// WithIPFunc overrides how the client IP is obtained. The default reads the
// address stored by clientip's middleware.
func WithIPFunc(fn func(*http.Request) string) Option {
	return func(g *Gate) {
		if fn != nil {
			g.ip = fn
		}
	}
}

// WithDeviceIDGenerator overrides how new device ids are minted.
func WithDeviceIDGenerator(fn func() string) Option {
	return func(g *Gate) {
		if fn != nil {
			g.newDeviceID = fn
		}
	}
}

// WithRecorder reports every decision to r.
func WithRecorder(r Recorder) Option {
	return func(g *Gate) { g.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGate panics on a nil dependency to fail fast during wiring.
func NewGate(subs SubscriptionChecker, devices DeviceLimiter, cookies DeviceCookies, opts ...Option) *Gate {
	if subs == nil || devices == nil || cookies == nil {
		panic("entitlement: subscription checker, device limiter and cookie manager are required")
	}
	g := &Gate{
		subs:              subs,
		devices:           devices,
		cookies:           cookies,
		fingerprintHeader: DefaultFingerprintHeader,
		cookieName:        DefaultDeviceCookie,
		ip:                func(r *http.Request) string { return clientip.FromContext(r.Context()) },
		newDeviceID:       uuid.NewString,
		log:               slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Middleware enforces the gate. It must run after identity.Middleware.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		subject, ok := identity.SubjectFromContext(ctx)
		if !ok {
			g.deny(w, r, http.StatusUnauthorized, ReasonInvalidCredential)
			return
		}

		fingerprint := strings.TrimSpace(r.Header.Get(g.fingerprintHeader))
		if fingerprint == "" {
			g.deny(w, r, http.StatusBadRequest, ReasonMissingInput)
			return
		}

		deviceID := g.deviceID(w, r)

		sub, err := g.subs.CheckActive(ctx, subject.ID)
		switch {
		case errors.Is(err, subscription.ErrNoActiveSubscription):
			g.deny(w, r, http.StatusForbidden, ReasonNoActiveSubscription)
			return
		case errors.Is(err, subscription.ErrExpired):
			g.deny(w, r, http.StatusForbidden, ReasonExpired)
			return
		case err != nil:
			g.fail(w, r, "subscription lookup failed", err)
			return
		}

		ip := g.ip(r)
		err = g.devices.CheckAndRecord(ctx, subject.ID, deviceID, fingerprint, ip, device.Limits{
			DeviceLimit: sub.DeviceLimit,
			IPLimit:     sub.IPLimit,
		})
		switch {
		case errors.Is(err, device.ErrDeviceLimitReached):
			g.deny(w, r, http.StatusForbidden, ReasonDeviceLimitReached)
			return
		case errors.Is(err, device.ErrIPLimitReached):
			g.deny(w, r, http.StatusForbidden, ReasonIPLimitReached)
			return
		case err != nil:
			g.fail(w, r, "device limiter failed", err)
			return
		}

		g.record(OutcomeAllowed)
		ctx = subscription.WithContext(ctx, sub)
		ctx = WithGrant(ctx, Grant{
			SubjectID:    subject.ID,
			Email:        subject.Email,
			DeviceID:     deviceID,
			Fingerprint:  fingerprint,
			IP:           ip,
			Subscription: sub,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deviceID returns the id from a valid signed cookie, or mints and sets a
// new one. A cleared or forged cookie is indistinguishable from a new device.
func (g *Gate) deviceID(w http.ResponseWriter, r *http.Request) string {
	if id, err := g.cookies.GetSigned(r, g.cookieName); err == nil && id != "" {
		return id
	}
	id := g.newDeviceID()
	g.cookies.SetSigned(w, g.cookieName, id)
	return id
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, status int, reason string) {
	g.record(reason)
	g.log.DebugContext(r.Context(), "entitlement denied", logger.Reason(reason))
	writeError(w, status, reason)
}

func (g *Gate) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	g.record(ReasonInternalError)
	g.log.ErrorContext(r.Context(), msg, logger.Error(err))
	writeError(w, http.StatusInternalServerError, ReasonInternalError)
}

func (g *Gate) record(outcome string) {
	if g.recorder != nil {
		g.recorder.GateDecision(outcome)
	}
}

func writeError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
}
