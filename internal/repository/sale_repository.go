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

// SaleRepository provides data access methods for the sale and
// purchase_sale_assignment tables.
type SaleRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSaleRepository creates a new SaleRepository with the provided database connection.
func NewSaleRepository(db *sql.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// WithTx returns a new SaleRepository scoped to the provided transaction.
func (r *SaleRepository) WithTx(tx *sql.Tx) *SaleRepository {
	return &SaleRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *SaleRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const saleColumns = `id, account_id, ticker, sale_date, quantity, unit_price, total_proceeds,
	reinvestment_lot_id, reinvested_amount, cash_retained, created_at`

// InsertSale creates the sale row. Assignments are inserted separately with
// InsertAssignments inside the same transaction.
func (r *SaleRepository) InsertSale(ctx context.Context, s *model.Sale) error {
	query := `
		INSERT INTO sale (` + saleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		s.ID,
		s.AccountID,
		s.Ticker,
		formatDate(s.SaleDate),
		s.QuantitySold,
		s.UnitPrice,
		s.TotalProceeds,
		nullableString(s.ReinvestmentLotID),
		s.ReinvestedAmount,
		s.CashRetained,
		formatTimestamp(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	return nil
}

// InsertAssignments inserts a batch of assignments with a single prepared statement.
func (r *SaleRepository) InsertAssignments(ctx context.Context, assignments []model.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	stmt, err := r.getQuerier().PrepareContext(ctx, `
		INSERT INTO purchase_sale_assignment
		(id, purchase_id, sale_id, quantity, cost_basis, proceeds, realized_gain_loss)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare assignment insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range assignments {
		_, err := stmt.ExecContext(ctx,
			a.ID,
			a.LotID,
			a.SaleID,
			a.QuantityAssigned,
			a.CostBasis,
			a.Proceeds,
			a.RealizedGainLoss,
		)
		if err != nil {
			return fmt.Errorf("failed to insert assignment for lot %s: %w", a.LotID, err)
		}
	}

	return nil
}

// GetSale retrieves a sale together with its assignments.
// Returns ErrSaleNotFound if no sale with the given ID exists.
func (r *SaleRepository) GetSale(ctx context.Context, saleID string) (model.Sale, error) {
	if saleID == "" {
		return model.Sale{}, apperrors.ErrInvalidSaleID
	}

	query := `SELECT ` + saleColumns + ` FROM sale WHERE id = ?`

	s, err := scanSale(r.getQuerier().QueryRowContext(ctx, query, saleID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Sale{}, apperrors.ErrSaleNotFound
	}
	if err != nil {
		return model.Sale{}, err
	}

	assignments, err := r.assignmentsBySale(ctx, []string{s.ID})
	if err != nil {
		return model.Sale{}, err
	}
	s.Assignments = assignments[s.ID]
	if s.Assignments == nil {
		s.Assignments = []model.Assignment{}
	}

	return s, nil
}

// GetSales retrieves the sales of an account, optionally limited to one ticker,
// newest first, each with its assignments.
func (r *SaleRepository) GetSales(ctx context.Context, accountID, ticker string) ([]model.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sale WHERE account_id = ?`
	args := []any{accountID}

	if ticker != "" {
		query += ` AND ticker = ?`
		args = append(args, ticker)
	}
	query += ` ORDER BY sale_date DESC, created_at DESC, id ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale table: %w", err)
	}
	defer rows.Close()

	sales := []model.Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale table: %w", err)
	}

	if len(sales) == 0 {
		return sales, nil
	}

	ids := make([]string, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
	}

	assignments, err := r.assignmentsBySale(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range sales {
		sales[i].Assignments = assignments[sales[i].ID]
		if sales[i].Assignments == nil {
			sales[i].Assignments = []model.Assignment{}
		}
	}

	return sales, nil
}

// GetRealizedAssignments returns every assignment of the account's sales,
// optionally limited to one ticker, tagged with the sale's ticker.
func (r *SaleRepository) GetRealizedAssignments(ctx context.Context, accountID, ticker string) ([]model.RealizedAssignment, error) {
	query := `
		SELECT a.id, a.purchase_id, a.sale_id, a.quantity, a.cost_basis, a.proceeds, a.realized_gain_loss, s.ticker
		FROM purchase_sale_assignment a
		JOIN sale s ON a.sale_id = s.id
		WHERE s.account_id = ?
	`
	args := []any{accountID}

	if ticker != "" {
		query += ` AND s.ticker = ?`
		args = append(args, ticker)
	}
	query += ` ORDER BY s.sale_date ASC, a.id ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase_sale_assignment table: %w", err)
	}
	defer rows.Close()

	realized := []model.RealizedAssignment{}
	for rows.Next() {
		var ra model.RealizedAssignment
		err := rows.Scan(
			&ra.ID,
			&ra.LotID,
			&ra.SaleID,
			&ra.QuantityAssigned,
			&ra.CostBasis,
			&ra.Proceeds,
			&ra.RealizedGainLoss,
			&ra.Ticker,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase_sale_assignment table results: %w", err)
		}
		realized = append(realized, ra)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase_sale_assignment table: %w", err)
	}

	return realized, nil
}

// GetSaleIDsByLot returns the IDs of all sales that drew shares from the lot.
func (r *SaleRepository) GetSaleIDsByLot(ctx context.Context, lotID string) ([]string, error) {
	return r.queryIDs(ctx, `
		SELECT DISTINCT sale_id FROM purchase_sale_assignment
		WHERE purchase_id = ?
		ORDER BY sale_id ASC
	`, lotID)
}

// GetSaleIDsByReinvestmentLot returns the IDs of all sales whose proceeds are linked to the lot.
func (r *SaleRepository) GetSaleIDsByReinvestmentLot(ctx context.Context, lotID string) ([]string, error) {
	return r.queryIDs(ctx, `
		SELECT id FROM sale
		WHERE reinvestment_lot_id = ?
		ORDER BY id ASC
	`, lotID)
}

// UpdateReinvestment overwrites the sale's reinvestment link.
// Returns ErrSaleNotFound if no sale with the given ID exists.
func (r *SaleRepository) UpdateReinvestment(ctx context.Context, saleID, lotID string, reinvested, cashRetained decimal.Decimal) error {
	query := `
		UPDATE sale
		SET reinvestment_lot_id = ?, reinvested_amount = ?, cash_retained = ?
		WHERE id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query, lotID, reinvested, cashRetained, saleID)
	if err != nil {
		return fmt.Errorf("failed to update sale reinvestment: %w", err)
	}

	return requireRow(result, apperrors.ErrSaleNotFound)
}

// ClearReinvestmentsForLot removes every reinvestment link pointing at the lot.
func (r *SaleRepository) ClearReinvestmentsForLot(ctx context.Context, lotID string) error {
	query := `
		UPDATE sale
		SET reinvestment_lot_id = NULL, reinvested_amount = NULL, cash_retained = NULL
		WHERE reinvestment_lot_id = ?
	`

	if _, err := r.getQuerier().ExecContext(ctx, query, lotID); err != nil {
		return fmt.Errorf("failed to clear sale reinvestments: %w", err)
	}

	return nil
}

// DeleteAssignmentsBySale removes all assignments of a sale.
func (r *SaleRepository) DeleteAssignmentsBySale(ctx context.Context, saleID string) error {
	_, err := r.getQuerier().ExecContext(ctx, `DELETE FROM purchase_sale_assignment WHERE sale_id = ?`, saleID)
	if err != nil {
		return fmt.Errorf("failed to delete sale assignments: %w", err)
	}
	return nil
}

// DeleteAssignmentsByLot removes all assignments that draw from a lot.
func (r *SaleRepository) DeleteAssignmentsByLot(ctx context.Context, lotID string) error {
	_, err := r.getQuerier().ExecContext(ctx, `DELETE FROM purchase_sale_assignment WHERE purchase_id = ?`, lotID)
	if err != nil {
		return fmt.Errorf("failed to delete lot assignments: %w", err)
	}
	return nil
}

// DeleteSale removes a sale row.
// Returns ErrSaleNotFound if no sale with the given ID exists.
func (r *SaleRepository) DeleteSale(ctx context.Context, saleID string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM sale WHERE id = ?`, saleID)
	if err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}

	return requireRow(result, apperrors.ErrSaleNotFound)
}

func (r *SaleRepository) assignmentsBySale(ctx context.Context, saleIDs []string) (map[string][]model.Assignment, error) {
	marks, args := placeholders(saleIDs)

	query := `
		SELECT a.id, a.purchase_id, a.sale_id, a.quantity, a.cost_basis, a.proceeds, a.realized_gain_loss
		FROM purchase_sale_assignment a
		JOIN purchase p ON a.purchase_id = p.id
		WHERE a.sale_id IN (` + marks + `)
		ORDER BY p.acquired_on ASC, p.id ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase_sale_assignment table: %w", err)
	}
	defer rows.Close()

	bySale := make(map[string][]model.Assignment, len(saleIDs))
	for rows.Next() {
		var a model.Assignment
		err := rows.Scan(
			&a.ID,
			&a.LotID,
			&a.SaleID,
			&a.QuantityAssigned,
			&a.CostBasis,
			&a.Proceeds,
			&a.RealizedGainLoss,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase_sale_assignment table results: %w", err)
		}
		bySale[a.SaleID] = append(bySale[a.SaleID], a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase_sale_assignment table: %w", err)
	}

	return bySale, nil
}

func (r *SaleRepository) queryIDs(ctx context.Context, query, arg string) ([]string, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan sale ids: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale ids: %w", err)
	}

	return ids, nil
}

func scanSale(row rowScanner) (model.Sale, error) {
	var s model.Sale
	var saleDateStr, createdAtStr string
	var reinvestmentLotID sql.NullString

	err := row.Scan(
		&s.ID,
		&s.AccountID,
		&s.Ticker,
		&saleDateStr,
		&s.QuantitySold,
		&s.UnitPrice,
		&s.TotalProceeds,
		&reinvestmentLotID,
		&s.ReinvestedAmount,
		&s.CashRetained,
		&createdAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Sale{}, err
		}
		return model.Sale{}, fmt.Errorf("failed to scan sale table results: %w", err)
	}

	s.SaleDate, err = ParseTime(saleDateStr)
	if err != nil {
		return model.Sale{}, err
	}
	s.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Sale{}, err
	}

	// ReinvestmentLotID is nullable
	if reinvestmentLotID.Valid {
		s.ReinvestmentLotID = reinvestmentLotID.String
	}

	return s, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return notFound
	}

	return nil
}
