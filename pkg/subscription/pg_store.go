package subscription

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/trialgate/pkg/pg"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore persists subscriptions in the subscriptions table.
type PGStore struct {
	db DBTX
}

func NewPGStore(db DBTX) *PGStore {
	return &PGStore{db: db}
}

const selectSubscriptionSQL = `
SELECT user_id, plan, active, start_at, end_at, device_limit, ip_limit, is_trial
FROM subscriptions
WHERE user_id = $1`

func (s *PGStore) Get(ctx context.Context, subjectID string) (*Subscription, error) {
	var sub Subscription
	err := s.db.QueryRow(ctx, selectSubscriptionSQL, subjectID).Scan(
		&sub.SubjectID, &sub.Plan, &sub.Active, &sub.StartAt, &sub.EndAt,
		&sub.DeviceLimit, &sub.IPLimit, &sub.IsTrial,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return &sub, nil
}

// upsertSubscriptionSQL overwrites the previous window; periods never accumulate.
const upsertSubscriptionSQL = `
INSERT INTO subscriptions (user_id, plan, active, start_at, end_at, device_limit, ip_limit, is_trial, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (user_id) DO UPDATE SET
    plan         = EXCLUDED.plan,
    active       = EXCLUDED.active,
    start_at     = EXCLUDED.start_at,
    end_at       = EXCLUDED.end_at,
    device_limit = EXCLUDED.device_limit,
    ip_limit     = EXCLUDED.ip_limit,
    is_trial     = EXCLUDED.is_trial,
    updated_at   = now()`

func (s *PGStore) Upsert(ctx context.Context, sub *Subscription) error {
	_, err := s.db.Exec(ctx, upsertSubscriptionSQL,
		sub.SubjectID, sub.Plan, sub.Active, sub.StartAt, sub.EndAt,
		sub.DeviceLimit, sub.IPLimit, sub.IsTrial,
	)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}
