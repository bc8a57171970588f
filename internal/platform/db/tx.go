package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStorageUnavailable is returned once transient failures exhaust the retry budget.
var ErrStorageUnavailable = errors.New("platform/db: storage unavailable")

const (
	maxTxAttempts  = 3
	initialBackoff = 50 * time.Millisecond
)

// Beginner is the subset of pgxpool.Pool used to open transactions.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

var _ Beginner = (*pgxpool.Pool)(nil)

// WithTx executes fn within a transaction using the supplied isolation level.
// Transient failures (serialization, deadlock, lost connection) re-run fn from
// scratch; fn must therefore be free of side effects outside the transaction.
func WithTx(ctx context.Context, pool Beginner, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := runTx(ctx, pool, opts, fn)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		lastErr = err
		if attempt == maxTxAttempts {
			break
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, lastErr)
}

func runTx(ctx context.Context, pool Beginner, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}
