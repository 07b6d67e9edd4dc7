package subscription

// Plan is a subscription tier.
type Plan string

const (
	PlanTrial Plan = "trial"
	PlanPaid  Plan = "paid"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	return p == PlanTrial || p == PlanPaid
}

// Limits are the per-subject device and IP allowances. They are derived
// from the plan, never configured per subscription.
type Limits struct {
	DeviceLimit int
	IPLimit     int
}

// LimitsFor returns the fixed allowances of a plan.
func LimitsFor(p Plan) Limits {
	switch p {
	case PlanPaid:
		return Limits{DeviceLimit: 2, IPLimit: 2}
	default:
		return Limits{DeviceLimit: 1, IPLimit: 1}
	}
}

// Status is the access state derived for a subject at request time.
type Status string

const (
	StatusNoSubscription Status = "no_subscription"
	StatusInactive       Status = "inactive"
	StatusActive         Status = "active"
	StatusExpired        Status = "expired"
)
