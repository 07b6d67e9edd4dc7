package subscription

import (
	"time"
)

// Subscription is the single entitlement record of a subject. Renewals and
// upgrades overwrite it in place.
type Subscription struct {
	SubjectID   string    `json:"user_id"`
	Plan        Plan      `json:"plan"`
	Active      bool      `json:"active"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	DeviceLimit int       `json:"device_limit"`
	IPLimit     int       `json:"ip_limit"`
	IsTrial     bool      `json:"is_trial"`
}

// Limits returns the device and IP allowances stored on the record.
func (s *Subscription) Limits() Limits {
	return Limits{DeviceLimit: s.DeviceLimit, IPLimit: s.IPLimit}
}

// IsExpiredAt reports whether the validity window has closed at now.
func (s *Subscription) IsExpiredAt(now time.Time) bool {
	return s.EndAt.Before(now)
}

// CheckAt returns nil when the subscription grants access at now,
// ErrNoActiveSubscription when it is switched off and ErrExpired when its
// window has closed, regardless of the active flag.
func (s *Subscription) CheckAt(now time.Time) error {
	if !s.Active {
		return ErrNoActiveSubscription
	}
	if s.IsExpiredAt(now) {
		return ErrExpired
	}
	return nil
}

// StatusAt maps the record onto the access state machine.
func (s *Subscription) StatusAt(now time.Time) Status {
	switch s.CheckAt(now) {
	case nil:
		return StatusActive
	case ErrExpired:
		return StatusExpired
	default:
		return StatusInactive
	}
}

// DaysRemainingAt returns whole days left, rounding partial days up.
func (s *Subscription) DaysRemainingAt(now time.Time) int {
	remaining := s.EndAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := remaining / (24 * time.Hour)
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return int(days)
}

func newSubscription(subjectID string, plan Plan, days int, now time.Time) *Subscription {
	limits := LimitsFor(plan)
	return &Subscription{
		SubjectID:   subjectID,
		Plan:        plan,
		Active:      true,
		StartAt:     now,
		EndAt:       now.AddDate(0, 0, days),
		DeviceLimit: limits.DeviceLimit,
		IPLimit:     limits.IPLimit,
		IsTrial:     plan == PlanTrial,
	}
}
