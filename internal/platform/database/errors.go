package database

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// IsRetryableError reports lock contention errors that usually succeed on a
// second attempt: sqlite BUSY/LOCKED and postgres serialization failures or
// deadlocks.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// IsNotFound reports gorm's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// WithRetry runs fn up to attempts times while it fails with a retryable error.
func WithRetry(attempts int, fn func() error) error {
	const delay = 50 * time.Millisecond

	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !IsRetryableError(err) {
			return err
		}
		time.Sleep(delay * time.Duration(i+1))
	}
	return err
}
