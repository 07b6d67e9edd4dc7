package device

import (
	"context"
	"strings"
	"time"
)

// Limiter enforces per-subject device and IP limits.
type Limiter struct {
	store  Store
	window time.Duration
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithIPWindow sets the trailing window for distinct IP counting.
func WithIPWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter panics on a nil store to fail fast during wiring.
func NewLimiter(store Store, opts ...Option) *Limiter {
	if store == nil {
		panic("device: Store is required")
	}
	l := &Limiter{store: store, window: DefaultIPWindow, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAndRecord registers or refreshes the device and enforces limits.
// A known device is never rejected by the device limit. The IP limit counts
// every distinct address any of the subject's devices was seen from inside
// the window, so a single roaming device can trip it. It is checked after
// the sighting is written so it counts the current request.
func (l *Limiter) CheckAndRecord(ctx context.Context, subjectID, deviceID, fingerprint, ip string, limits Limits) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return ErrMissingSubject
	}
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return ErrMissingDevice
	}

	now := l.now().UTC()
	return l.store.Record(ctx, Sighting{
		SubjectID:   subjectID,
		DeviceID:    deviceID,
		Fingerprint: fingerprint,
		IP:          ip,
		SeenAt:      now,
	}, limits, now.Add(-l.window))
}

// List returns the subject's known devices.
func (l *Limiter) List(ctx context.Context, subjectID string) ([]Record, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrMissingSubject
	}
	return l.store.List(ctx, subjectID)
}
