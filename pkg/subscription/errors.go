package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrExpired              = errors.New("subscription expired")
	ErrMissingSubject       = errors.New("subject id is required")
	ErrInvalidDuration      = errors.New("subscription duration must be positive")
	ErrInvalidPlan          = errors.New("unknown subscription plan")
	ErrStoreFailure         = errors.New("subscription store failure")
)
