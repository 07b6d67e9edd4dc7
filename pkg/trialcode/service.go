package trialcode

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"
)

const (
	codePrefix   = "TRIAL-"
	codeLength   = 8
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	maxBatch          = 1000
	maxCreateAttempts = 5
)

// GenerateParams describes a batch of codes to mint.
type GenerateParams struct {
	Count     int        // Number of codes, 1 when zero
	Days      int        // Trial length granted on redemption, DefaultDurationDays when zero
	ExpiresAt *time.Time // Optional redemption deadline
}

// Service is the trial code ledger.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source used for redemption and expiry checks.
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
		panic("trialcode: Store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate mints params.Count fresh codes. Collisions with existing codes
// are retried with a new random value.
func (s *Service) Generate(ctx context.Context, params GenerateParams) ([]Code, error) {
	count := params.Count
	if count == 0 {
		count = 1
	}
	if count < 0 || count > maxBatch {
		return nil, ErrInvalidCount
	}
	days := params.Days
	if days == 0 {
		days = DefaultDurationDays
	}
	if days < 0 {
		return nil, ErrInvalidDuration
	}

	now := s.now().UTC()
	codes := make([]Code, 0, count)
	for range count {
		code, err := s.create(ctx, days, params.ExpiresAt, now)
		if err != nil {
			return codes, err
		}
		codes = append(codes, *code)
	}
	return codes, nil
}

// Create stores a specific code value, normalised to upper case.
func (s *Service) Create(ctx context.Context, value string, days int, expiresAt *time.Time) (*Code, error) {
	value = Normalize(value)
	if value == "" {
		return nil, ErrMissingCode
	}
	if days <= 0 {
		return nil, ErrInvalidDuration
	}

	code := &Code{
		Code:         value,
		DurationDays: &days,
		ExpiresAt:    expiresAt,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

func (s *Service) create(ctx context.Context, days int, expiresAt *time.Time, now time.Time) (*Code, error) {
	for range maxCreateAttempts {
		value, err := newCodeValue()
		if err != nil {
			return nil, err
		}
		code := &Code{
			Code:         value,
			DurationDays: &days,
			ExpiresAt:    expiresAt,
			CreatedAt:    now,
		}
		err = s.store.Create(ctx, code)
		if errors.Is(err, ErrCodeAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return code, nil
	}
	return nil, ErrCodeAlreadyExists
}

// Redeem consumes code on behalf of subjectID and returns the number of
// trial days it grants. Every failure other than a store error is
// ErrInvalidCode so callers cannot probe which codes exist.
func (s *Service) Redeem(ctx context.Context, code, subjectID string) (int, error) {
	code = Normalize(code)
	if code == "" {
		return 0, ErrMissingCode
	}
	if subjectID == "" {
		return 0, ErrMissingSubject
	}

	days, err := s.store.Redeem(ctx, code, subjectID, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if days == nil {
		return DefaultDurationDays, nil
	}
	return *days, nil
}

// Get returns the audit record for code.
func (s *Service) Get(ctx context.Context, code string) (*Code, error) {
	return s.store.Get(ctx, Normalize(code))
}

// Normalize trims whitespace and upper-cases a user-entered code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func newCodeValue() (string, error) {
	// Bytes at or above this bound are rejected so every symbol is equally likely.
	const bound = 256 - 256%len(codeAlphabet)

	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength*2)
	for len(out) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= bound {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == codeLength {
				break
			}
		}
	}
	return codePrefix + string(out), nil
}
