package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/model"
)

// PriceRepository provides data access methods for the price_cache table.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// GetPrice returns the cached close for a ticker on a date.
// The boolean is false when nothing is cached.
func (r *PriceRepository) GetPrice(ctx context.Context, ticker string, date time.Time) (model.CachedPrice, bool, error) {
	query := `
		SELECT ticker, date, close_price, fetched_at
		FROM price_cache
		WHERE ticker = ? AND date = ?
	`

	var p model.CachedPrice
	var dateStr, fetchedAtStr string

	err := r.db.QueryRowContext(ctx, query, ticker, formatDate(date)).Scan(
		&p.Ticker,
		&dateStr,
		&p.ClosePrice,
		&fetchedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CachedPrice{}, false, nil
	}
	if err != nil {
		return model.CachedPrice{}, false, fmt.Errorf("failed to scan price_cache table results: %w", err)
	}

	p.Date, err = ParseTime(dateStr)
	if err != nil {
		return model.CachedPrice{}, false, err
	}
	p.FetchedAt, err = ParseTime(fetchedAtStr)
	if err != nil {
		return model.CachedPrice{}, false, err
	}

	return p, true, nil
}

// UpsertPrice stores a close, replacing any earlier value for the same ticker and date.
func (r *PriceRepository) UpsertPrice(ctx context.Context, p model.CachedPrice) error {
	query := `
		INSERT INTO price_cache (id, ticker, date, close_price, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (ticker, date) DO UPDATE SET
			close_price = excluded.close_price,
			fetched_at = excluded.fetched_at
	`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(),
		p.Ticker,
		formatDate(p.Date),
		p.ClosePrice,
		formatTimestamp(p.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price_cache: %w", err)
	}

	return nil
}
