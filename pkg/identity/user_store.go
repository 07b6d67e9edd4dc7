package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
)

// UserStore mirrors verified subjects into the local users table.
type UserStore interface {
	Upsert(ctx context.Context, s Subject) error
}

// MemoryUserStore keeps users in process memory.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]Subject
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]Subject)}
}

func (s *MemoryUserStore) Upsert(_ context.Context, subject Subject) error {
	if subject.ID == "" {
		return ErrMissingSubject
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[subject.ID] = subject
	return nil
}

// Get returns a stored user.
func (s *MemoryUserStore) Get(id string) (Subject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// Execer is satisfied by *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGUserStore upserts users by id, refreshing the email when it changes.
type PGUserStore struct {
	db Execer
}

func NewPGUserStore(db Execer) *PGUserStore {
	return &PGUserStore{db: db}
}

const upsertUserSQL = `
INSERT INTO users (id, email) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, updated_at = now()
WHERE users.email IS DISTINCT FROM EXCLUDED.email`

func (s *PGUserStore) Upsert(ctx context.Context, subject Subject) error {
	if subject.ID == "" {
		return ErrMissingSubject
	}
	if _, err := s.db.Exec(ctx, upsertUserSQL, subject.ID, subject.Email); err != nil {
		return errors.Join(errors.New("identity: upsert user"), err)
	}
	return nil
}
