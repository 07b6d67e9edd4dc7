package entitlement

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/trialgate/pkg/cookie"
	"github.com/dmitrymomot/trialgate/pkg/device"
	"github.com/dmitrymomot/trialgate/pkg/subscription"
)

const (
	DefaultFingerprintHeader = "X-Device-Fingerprint"
	DefaultDeviceCookie      = "device_id"
)

// Reason keys returned in {"error": ...} bodies.
const (
	ReasonInvalidCredential    = "invalid_credential"
	ReasonMissingInput         = "missing_input"
	ReasonNoActiveSubscription = "no_active_subscription"
	ReasonExpired              = "expired"
	ReasonDeviceLimitReached   = "device_limit_reached"
	ReasonIPLimitReached       = "ip_limit_reached"
	ReasonInternalError        = "internal_error"
	OutcomeAllowed             = "allowed"
)

// SubscriptionChecker loads a subscription that currently grants access.
type SubscriptionChecker interface {
	CheckActive(ctx context.Context, subjectID string) (*subscription.Subscription, error)
}

// DeviceLimiter records a device sighting and enforces the limits.
type DeviceLimiter interface {
	CheckAndRecord(ctx context.Context, subjectID, deviceID, fingerprint, ip string, limits device.Limits) error
}

// DeviceCookies reads and writes the signed device identity cookie.
type DeviceCookies interface {
	GetSigned(r *http.Request, name string) (string, error)
	SetSigned(w http.ResponseWriter, name, value string, opts ...cookie.Option)
}

// Recorder receives gate outcomes.
type Recorder interface {
	GateDecision(outcome string)
}

// Grant describes an admitted request.
type Grant struct {
	SubjectID    string
	Email        string
	DeviceID     string
	Fingerprint  string
	IP           string
	Subscription *subscription.Subscription
}

type grantKey struct{}

// WithGrant stores g in ctx.
func WithGrant(ctx context.Context, g Grant) context.Context {
	return context.WithValue(ctx, grantKey{}, g)
}

// FromContext returns the grant attached by the gate.
func FromContext(ctx context.Context) (Grant, bool) {
	g, ok := ctx.Value(grantKey{}).(Grant)
	return g, ok
}
