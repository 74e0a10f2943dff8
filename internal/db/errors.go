package db

import (
	"context"
	"errors"

	"github.com/MyelinBots/bloom-go/internal/apperrors"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrStaleWrite is returned by compare-and-swap updates that matched no row
// because another writer got there first.
var ErrStaleWrite = errors.New("stale write: record changed concurrently")

// Postgres SQLSTATEs worth retrying the whole transaction for.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateUniqueViolation      = "23505"
)

// Classify maps storage-level failures onto the application taxonomy.
// Errors that already carry an application code pass through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Wrap(apperrors.CodeStateConflict, "duplicate record", err)
	}
	if errors.Is(err, ErrStaleWrite) {
		return apperrors.Transient("concurrent update, retry", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.CodeTransient, apperrors.ErrTxTimeout.Error(), err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
			return apperrors.Transient("transaction conflict, retry", err)
		case sqlStateUniqueViolation:
			return apperrors.Wrap(apperrors.CodeStateConflict, "duplicate record", err)
		}
	}
	return err
}

// IsDuplicate reports a unique-constraint violation, translated or raw.
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}

// IsNotFound reports a missing row, including wrapped gorm errors.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
