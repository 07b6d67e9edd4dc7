package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// InTx runs fn inside a transaction and commits when fn returns nil.
// A transaction aborted with a serialization failure or deadlock is rolled
// back and fn is run again from scratch, up to attempts times, so fn must
// not have side effects outside the transaction.
func InTx(ctx context.Context, db TxBeginner, opts pgx.TxOptions, attempts int, fn func(pgx.Tx) error) error {
	attempts = max(attempts, 1)

	var lastErr error
	for range attempts {
		err := runTx(ctx, db, opts, fn)
		if err == nil {
			return nil
		}
		if !IsRetryableTxError(err) {
			return err
		}
		lastErr = err
	}

	return errors.Join(ErrTxRetriesExhausted, lastErr)
}

func runTx(ctx context.Context, db TxBeginner, opts pgx.TxOptions, fn func(pgx.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			// Rollback after a failed commit is a no-op returning ErrTxClosed.
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
