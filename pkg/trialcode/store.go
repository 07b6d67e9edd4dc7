package trialcode

import (
	"context"
	"time"
)

// Store persists trial codes.
type Store interface {
	// Create inserts a new unused code. Returns ErrCodeAlreadyExists on collision.
	Create(ctx context.Context, code *Code) error

	// Get returns a code or ErrCodeNotFound.
	Get(ctx context.Context, code string) (*Code, error)

	// Redeem marks the code used by subjectID in a single conditional write:
	// it applies only if the code exists, is unused and is not expired at now.
	// Returns the stored duration (nil when unset) on success and
	// ErrInvalidCode when the write matched no row.
	Redeem(ctx context.Context, code, subjectID string, now time.Time) (*int, error)
}
