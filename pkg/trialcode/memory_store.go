package trialcode

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps codes in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]Code
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]Code)}
}

func (s *MemoryStore) Create(_ context.Context, code *Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[code.Code]; ok {
		return ErrCodeAlreadyExists
	}
	s.codes[code.Code] = clone(*code)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, code string) (*Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok {
		return nil, ErrCodeNotFound
	}
	out := clone(c)
	return &out, nil
}

// Redeem holds the store lock across the condition and the write, which is
// the in-memory equivalent of a conditional UPDATE.
func (s *MemoryStore) Redeem(_ context.Context, code, subjectID string, now time.Time) (*int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok || !c.IsRedeemableAt(now) {
		return nil, ErrInvalidCode
	}

	usedAt := now
	c.Used = true
	c.UsedBy = &subjectID
	c.UsedAt = &usedAt
	s.codes[code] = c

	if c.DurationDays == nil {
		return nil, nil
	}
	days := *c.DurationDays
	return &days, nil
}

func clone(c Code) Code {
	if c.UsedBy != nil {
		v := *c.UsedBy
		c.UsedBy = &v
	}
	if c.UsedAt != nil {
		v := *c.UsedAt
		c.UsedAt = &v
	}
	if c.DurationDays != nil {
		v := *c.DurationDays
		c.DurationDays = &v
	}
	if c.ExpiresAt != nil {
		v := *c.ExpiresAt
		c.ExpiresAt = &v
	}
	return c
}
