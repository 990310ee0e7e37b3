package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
)

// QuantityPrecision is the number of decimal places kept when a share
// quantity is derived by dividing an amount by a price.
const QuantityPrecision = 8

// domainErrors pass through storage calls untouched; anything else coming
// out of a repository is a persistence failure.
var domainErrors = []error{
	apperrors.ErrAccountNotFound,
	apperrors.ErrLotNotFound,
	apperrors.ErrSaleNotFound,
	apperrors.ErrInvalidAccountID,
	apperrors.ErrInvalidLotID,
	apperrors.ErrInvalidSaleID,
	context.Canceled,
	context.DeadlineExceeded,
}

// storageErr wraps a repository error with ErrPersistenceFailure unless it is
// a domain error callers should see as-is.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", apperrors.ErrPersistenceFailure, err)
}

// withTx runs fn inside a write transaction and commits when fn succeeds.
// The connection is opened with _txlock=immediate, so BEGIN takes the write lock.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(fmt.Errorf("failed to begin transaction: %w", err))
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// readTx runs fn inside a transaction that is always rolled back, so that
// several reads see one consistent state of the database.
func readTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}

// normalizeTicker upper-cases and trims a ticker symbol.
func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// parseDate parses a YYYY-MM-DD date as midnight UTC.
func parseDate(value string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return d, nil
}

// day truncates t to midnight UTC.
func day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
