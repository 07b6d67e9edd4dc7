package subscription

import (
	"context"
	"sync"
)

// MemoryStore keeps subscriptions in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]Subscription)}
}

func (s *MemoryStore) Get(_ context.Context, subjectID string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[subjectID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (s *MemoryStore) Upsert(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs[sub.SubjectID] = *sub
	return nil
}
