package trialcode

import "time"

// DefaultDurationDays is granted by codes created without an explicit duration.
const DefaultDurationDays = 7

// Code is a single-use trial code. Once Used is true the row never changes
// again; rows are kept as an audit trail.
type Code struct {
	Code         string
	Used         bool
	UsedBy       *string
	UsedAt       *time.Time
	DurationDays *int
	ExpiresAt    *time.Time
	CreatedAt    time.Time
}

// Days returns the configured duration, DefaultDurationDays when unset.
func (c *Code) Days() int {
	if c.DurationDays == nil {
		return DefaultDurationDays
	}
	return *c.DurationDays
}

// IsExpiredAt reports whether the code can no longer be redeemed at now.
func (c *Code) IsExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// IsRedeemableAt reports whether a redeem at now would succeed.
func (c *Code) IsRedeemableAt(now time.Time) bool {
	return !c.Used && !c.IsExpiredAt(now)
}
