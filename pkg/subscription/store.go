package subscription

import "context"

// Store persists subscriptions; the subject id is the primary key.
type Store interface {
	// Get returns ErrSubscriptionNotFound when the subject has no record.
	Get(ctx context.Context, subjectID string) (*Subscription, error)

	// Upsert replaces every field of the subject's record, creating it if needed.
	Upsert(ctx context.Context, sub *Subscription) error
}
