package trialcode

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/trialgate/pkg/pg"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore persists codes in the trial_codes table.
type PGStore struct {
	db DBTX
}

func NewPGStore(db DBTX) *PGStore {
	return &PGStore{db: db}
}

const insertCodeSQL = `
INSERT INTO trial_codes (code, used, duration_days, expires_at, created_at)
VALUES ($1, false, $2, $3, $4)`

func (s *PGStore) Create(ctx context.Context, code *Code) error {
	_, err := s.db.Exec(ctx, insertCodeSQL, code.Code, code.DurationDays, code.ExpiresAt, code.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrCodeAlreadyExists
		}
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

const selectCodeSQL = `
SELECT code, used, used_by, used_at, duration_days, expires_at, created_at
FROM trial_codes
WHERE code = $1`

func (s *PGStore) Get(ctx context.Context, code string) (*Code, error) {
	var c Code
	err := s.db.QueryRow(ctx, selectCodeSQL, code).Scan(
		&c.Code, &c.Used, &c.UsedBy, &c.UsedAt, &c.DurationDays, &c.ExpiresAt, &c.CreatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrCodeNotFound
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return &c, nil
}

// redeemCodeSQL is the whole critical section of a redemption: the row is
// locked by the UPDATE, so among concurrent redeemers exactly one sees the
// used = false predicate hold.
const redeemCodeSQL = `
UPDATE trial_codes
SET used = true, used_by = $2, used_at = $3
WHERE code = $1
  AND used = false
  AND (expires_at IS NULL OR expires_at > $3)
RETURNING duration_days`

func (s *PGStore) Redeem(ctx context.Context, code, subjectID string, now time.Time) (*int, error) {
	var days *int
	if err := s.db.QueryRow(ctx, redeemCodeSQL, code, subjectID, now).Scan(&days); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return days, nil
}
