package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/model"
)

// LotRepository provides data access methods for the purchase table.
// Every lot it returns carries its derived assigned/remaining balances.
type LotRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewLotRepository creates a new LotRepository with the provided database connection.
func NewLotRepository(db *sql.DB) *LotRepository {
	return &LotRepository{db: db}
}

// WithTx returns a new LotRepository scoped to the provided transaction.
func (r *LotRepository) WithTx(tx *sql.Tx) *LotRepository {
	return &LotRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *LotRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const lotColumns = `id, account_id, ticker, acquired_on, quantity, unit_cost, amount, created_at`

// InsertLot creates a new purchase lot.
func (r *LotRepository) InsertLot(ctx context.Context, l *model.Lot) error {
	query := `
		INSERT INTO purchase (` + lotColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		l.ID,
		l.AccountID,
		l.Ticker,
		formatDate(l.AcquiredOn),
		l.QuantityAcquired,
		l.UnitCost,
		l.Amount,
		formatTimestamp(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lot: %w", err)
	}

	return nil
}

// GetLot retrieves a single lot with its balances.
// Returns ErrLotNotFound if no lot with the given ID exists.
func (r *LotRepository) GetLot(ctx context.Context, lotID string) (model.Lot, error) {
	if lotID == "" {
		return model.Lot{}, apperrors.ErrInvalidLotID
	}

	query := `SELECT ` + lotColumns + ` FROM purchase WHERE id = ?`

	l, err := scanLot(r.getQuerier().QueryRowContext(ctx, query, lotID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Lot{}, apperrors.ErrLotNotFound
	}
	if err != nil {
		return model.Lot{}, err
	}

	assigned, err := r.assignedByLot(ctx, []string{l.ID})
	if err != nil {
		return model.Lot{}, err
	}
	l.ApplyAssigned(assigned[l.ID])

	return l, nil
}

// GetLots retrieves the lots of an account, optionally limited to one ticker,
// ordered by acquisition date ascending with ties broken by lot ID.
// This is the order the FIFO engine consumes lots in.
func (r *LotRepository) GetLots(ctx context.Context, accountID, ticker string) ([]model.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM purchase WHERE account_id = ?`
	args := []any{accountID}

	if ticker != "" {
		query += ` AND ticker = ?`
		args = append(args, ticker)
	}
	query += ` ORDER BY acquired_on ASC, id ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase table: %w", err)
	}
	defer rows.Close()

	lots := []model.Lot{}
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase table: %w", err)
	}

	if len(lots) == 0 {
		return lots, nil
	}

	ids := make([]string, len(lots))
	for i, l := range lots {
		ids[i] = l.ID
	}

	assigned, err := r.assignedByLot(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range lots {
		lots[i].ApplyAssigned(assigned[lots[i].ID])
	}

	return lots, nil
}

// GetTickers returns every distinct ticker that has at least one lot.
func (r *LotRepository) GetTickers(ctx context.Context) ([]string, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `SELECT DISTINCT ticker FROM purchase ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase tickers: %w", err)
	}
	defer rows.Close()

	tickers := []string{}
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan purchase tickers: %w", err)
		}
		tickers = append(tickers, ticker)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase tickers: %w", err)
	}

	return tickers, nil
}

// DeleteLot removes a lot by its ID.
// Returns ErrLotNotFound if no lot with the given ID exists.
func (r *LotRepository) DeleteLot(ctx context.Context, lotID string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM purchase WHERE id = ?`, lotID)
	if err != nil {
		return fmt.Errorf("failed to delete lot: %w", err)
	}

	return requireRow(result, apperrors.ErrLotNotFound)
}

// assignedByLot sums assignment quantities per lot. The sum runs in Go so
// decimal quantities never pass through SQLite's floating-point SUM.
func (r *LotRepository) assignedByLot(ctx context.Context, lotIDs []string) (map[string]decimal.Decimal, error) {
	marks, args := placeholders(lotIDs)

	query := `
		SELECT purchase_id, quantity
		FROM purchase_sale_assignment
		WHERE purchase_id IN (` + marks + `)
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase_sale_assignment table: %w", err)
	}
	defer rows.Close()

	assigned := make(map[string]decimal.Decimal, len(lotIDs))
	for rows.Next() {
		var lotID string
		var quantity decimal.Decimal
		if err := rows.Scan(&lotID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan purchase_sale_assignment table results: %w", err)
		}
		assigned[lotID] = assigned[lotID].Add(quantity)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase_sale_assignment table: %w", err)
	}

	return assigned, nil
}

func scanLot(row rowScanner) (model.Lot, error) {
	var l model.Lot
	var acquiredOnStr, createdAtStr string

	err := row.Scan(
		&l.ID,
		&l.AccountID,
		&l.Ticker,
		&acquiredOnStr,
		&l.QuantityAcquired,
		&l.UnitCost,
		&l.Amount,
		&createdAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Lot{}, err
		}
		return model.Lot{}, fmt.Errorf("failed to scan purchase table results: %w", err)
	}

	l.AcquiredOn, err = ParseTime(acquiredOnStr)
	if err != nil {
		return model.Lot{}, err
	}
	l.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Lot{}, err
	}

	return l, nil
}
