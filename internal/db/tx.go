package db

import (
	"context"
	"errors"
	"time"

	"github.com/MyelinBots/bloom-go/internal/apperrors"
	"github.com/cenkalti/backoff/v5"
	"gorm.io/gorm"
)

// Transact runs fn inside a single transaction bounded by the configured
// timeout. Transient failures (serialization conflicts, deadlocks, stale CAS
// writes, timeouts) roll back and retry fn from scratch, up to the configured
// number of attempts. fn must therefore be free of side effects outside tx.
func (d *DB) Transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		txCtx, cancel := context.WithTimeout(ctx, d.txTimeout)
		defer cancel()

		err := Classify(d.DB.WithContext(txCtx).Transaction(fn))
		if err == nil {
			return struct{}{}, nil
		}
		if apperrors.HasCode(err, apperrors.CodeTransient) && ctx.Err() == nil {
			d.log.Debug("retrying transaction", "attempt", attempt, "error", err)
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(d.txMaxAttempts),
	)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return Classify(err)
	}
	return err
}
