package subscription

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Service manages per-subject subscriptions.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService panics on a nil store to fail fast during wiring.
func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic("subscription: Store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertTrial starts a trial window of days from now, overwriting any
// previous subscription including a paid one.
func (s *Service) UpsertTrial(ctx context.Context, subjectID string, days int) (*Subscription, error) {
	return s.upsert(ctx, subjectID, PlanTrial, days)
}

// UpsertPaid starts a paid window of days from now.
func (s *Service) UpsertPaid(ctx context.Context, subjectID string, days int) (*Subscription, error) {
	return s.upsert(ctx, subjectID, PlanPaid, days)
}

func (s *Service) upsert(ctx context.Context, subjectID string, plan Plan, days int) (*Subscription, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrMissingSubject
	}
	if days <= 0 {
		return nil, ErrInvalidDuration
	}
	if !plan.Valid() {
		return nil, ErrInvalidPlan
	}

	sub := newSubscription(subjectID, plan, days, s.now().UTC())
	if err := s.store.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Get returns the subject's record, or ErrSubscriptionNotFound.
func (s *Service) Get(ctx context.Context, subjectID string) (*Subscription, error) {
	if subjectID == "" {
		return nil, ErrMissingSubject
	}
	return s.store.Get(ctx, subjectID)
}

// CheckActive returns the subscription when it grants access now.
// A missing record maps to ErrNoActiveSubscription.
func (s *Service) CheckActive(ctx context.Context, subjectID string) (*Subscription, error) {
	sub, err := s.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) || errors.Is(err, ErrMissingSubject) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}
	if err := sub.CheckAt(s.now()); err != nil {
		return nil, err
	}
	return sub, nil
}

// Status returns the derived access state of the subject.
func (s *Service) Status(ctx context.Context, subjectID string) (Status, *Subscription, error) {
	sub, err := s.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return StatusNoSubscription, nil, nil
		}
		return "", nil, err
	}
	return sub.StatusAt(s.now()), sub, nil
}

// Now exposes the service clock to callers that share it.
func (s *Service) Now() time.Time {
	return s.now()
}
