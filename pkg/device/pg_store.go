package device

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/trialgate/pkg/pg"
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	pg.TxBeginner
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGStore persists devices in user_devices and the addresses each device
// was seen from in user_device_ips. Each Record call runs in one transaction
// holding a subject scoped advisory lock, so concurrent first sightings of
// different devices cannot both pass the count check.
type PGStore struct {
	db       DB
	attempts int
}

// NewPGStore creates a store. attempts bounds retries of transactions aborted
// by serialization failures or deadlocks.
func NewPGStore(db DB, attempts int) *PGStore {
	return &PGStore{db: db, attempts: max(attempts, 1)}
}

const (
	lockSubjectSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

	deviceExistsSQL = `
SELECT EXISTS (SELECT 1 FROM user_devices WHERE user_id = $1 AND device_id = $2)`

	countDevicesSQL = `SELECT count(*) FROM user_devices WHERE user_id = $1`

	upsertDeviceSQL = `
INSERT INTO user_devices (user_id, device_id, fingerprint, ip, last_seen)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, device_id) DO UPDATE SET
    fingerprint = EXCLUDED.fingerprint,
    ip          = EXCLUDED.ip,
    last_seen   = EXCLUDED.last_seen`

	upsertDeviceIPSQL = `
INSERT INTO user_device_ips (user_id, device_id, ip, last_seen)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, device_id, ip) DO UPDATE SET
    last_seen = EXCLUDED.last_seen`

	countRecentIPsSQL = `
SELECT count(DISTINCT ip) FROM user_device_ips WHERE user_id = $1 AND last_seen > $2`

	listDevicesSQL = `
SELECT user_id, device_id, fingerprint, ip, last_seen
FROM user_devices
WHERE user_id = $1
ORDER BY last_seen DESC`
)

func (s *PGStore) Record(ctx context.Context, in Sighting, limits Limits, since time.Time) error {
	// The IP denial is reported after commit: the sighting that tripped it
	// stays recorded.
	var ipDenied bool

	err := pg.InTx(ctx, s.db, pgx.TxOptions{}, s.attempts, func(tx pgx.Tx) error {
		ipDenied = false

		if _, err := tx.Exec(ctx, lockSubjectSQL, in.SubjectID); err != nil {
			return err
		}

		var known bool
		if err := tx.QueryRow(ctx, deviceExistsSQL, in.SubjectID, in.DeviceID).Scan(&known); err != nil {
			return err
		}
		if !known {
			var count int
			if err := tx.QueryRow(ctx, countDevicesSQL, in.SubjectID).Scan(&count); err != nil {
				return err
			}
			if count >= limits.DeviceLimit {
				return ErrDeviceLimitReached
			}
		}

		if _, err := tx.Exec(ctx, upsertDeviceSQL,
			in.SubjectID, in.DeviceID, in.Fingerprint, in.IP, in.SeenAt,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upsertDeviceIPSQL,
			in.SubjectID, in.DeviceID, in.IP, in.SeenAt,
		); err != nil {
			return err
		}

		if limits.IPLimit <= 0 {
			return nil
		}
		var ips int
		if err := tx.QueryRow(ctx, countRecentIPsSQL, in.SubjectID, since).Scan(&ips); err != nil {
			return err
		}
		ipDenied = ips > limits.IPLimit
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDeviceLimitReached) {
			return ErrDeviceLimitReached
		}
		return errors.Join(ErrStoreFailure, err)
	}
	if ipDenied {
		return ErrIPLimitReached
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, subjectID string) ([]Record, error) {
	rows, err := s.db.Query(ctx, listDevicesSQL, subjectID)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		err := row.Scan(&r.SubjectID, &r.DeviceID, &r.Fingerprint, &r.IP, &r.LastSeen)
		return r, err
	})
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return records, nil
}
