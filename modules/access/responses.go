package access

import (
	"time"

	"github.com/dmitrymomot/trialgate/pkg/device"
	"github.com/dmitrymomot/trialgate/pkg/subscription"
	"github.com/dmitrymomot/trialgate/pkg/trialcode"
)

type subscriptionResponse struct {
	UserID        string              `json:"user_id"`
	Plan          subscription.Plan   `json:"plan"`
	Status        subscription.Status `json:"status"`
	Active        bool                `json:"active"`
	IsTrial       bool                `json:"is_trial"`
	StartAt       time.Time           `json:"start_at"`
	EndAt         time.Time           `json:"end_at"`
	DaysRemaining int                 `json:"days_remaining"`
	DeviceLimit   int                 `json:"device_limit"`
	IPLimit       int                 `json:"ip_limit"`
}

func toSubscriptionResponse(s *subscription.Subscription, now time.Time) subscriptionResponse {
	return subscriptionResponse{
		UserID:        s.SubjectID,
		Plan:          s.Plan,
		Status:        s.StatusAt(now),
		Active:        s.Active,
		IsTrial:       s.IsTrial,
		StartAt:       s.StartAt,
		EndAt:         s.EndAt,
		DaysRemaining: s.DaysRemainingAt(now),
		DeviceLimit:   s.DeviceLimit,
		IPLimit:       s.IPLimit,
	}
}

type codeResponse struct {
	Code         string     `json:"code"`
	Used         bool       `json:"used"`
	UsedBy       *string    `json:"used_by,omitempty"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	DurationDays int        `json:"duration_days"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toCodeResponse(c *trialcode.Code) codeResponse {
	return codeResponse{
		Code:         c.Code,
		Used:         c.Used,
		UsedBy:       c.UsedBy,
		UsedAt:       c.UsedAt,
		DurationDays: c.Days(),
		ExpiresAt:    c.ExpiresAt,
		CreatedAt:    c.CreatedAt,
	}
}

type deviceResponse struct {
	DeviceID    string    `json:"device_id"`
	Fingerprint string    `json:"fingerprint"`
	IP          string    `json:"ip"`
	LastSeen    time.Time `json:"last_seen"`
	Current     bool      `json:"current"`
}

func toDeviceResponses(records []device.Record, current string) []deviceResponse {
	out := make([]deviceResponse, 0, len(records))
	for _, r := range records {
		out = append(out, deviceResponse{
			DeviceID:    r.DeviceID,
			Fingerprint: r.Fingerprint,
			IP:          r.IP,
			LastSeen:    r.LastSeen,
			Current:     r.DeviceID == current,
		})
	}
	return out
}
