package trialcode

import "errors"

var (
	// ErrInvalidCode covers absent, already used and expired codes alike.
	ErrInvalidCode = errors.New("trial code is invalid, used or expired")

	ErrCodeNotFound      = errors.New("trial code not found")
	ErrCodeAlreadyExists = errors.New("trial code already exists")
	ErrMissingCode       = errors.New("trial code is required")
	ErrMissingSubject    = errors.New("subject id is required")
	ErrInvalidDuration   = errors.New("trial duration must be positive")
	ErrInvalidCount      = errors.New("code count must be between 1 and 1000")
	ErrStoreFailure      = errors.New("trial code store failure")
)
