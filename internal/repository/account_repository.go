package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/model"
)

// AccountRepository provides data access methods for the account table.
type AccountRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewAccountRepository creates a new AccountRepository with the provided database connection.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx returns a new AccountRepository scoped to the provided transaction.
func (r *AccountRepository) WithTx(tx *sql.Tx) *AccountRepository {
	return &AccountRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *AccountRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertAccount creates a new account record.
func (r *AccountRepository) InsertAccount(ctx context.Context, a *model.Account) error {
	query := `
		INSERT INTO account (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		a.ID,
		a.Name,
		formatTimestamp(a.CreatedAt),
		formatTimestamp(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return nil
}

// GetAccount retrieves a single account by its ID.
// Returns ErrAccountNotFound if no account with the given ID exists.
func (r *AccountRepository) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	if accountID == "" {
		return model.Account{}, apperrors.ErrInvalidAccountID
	}

	query := `
		SELECT id, name, created_at, updated_at
		FROM account
		WHERE id = ?
	`

	a, err := scanAccount(r.getQuerier().QueryRowContext(ctx, query, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, err
	}

	return a, nil
}

// GetAccounts retrieves all accounts ordered by name.
func (r *AccountRepository) GetAccounts(ctx context.Context) ([]model.Account, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM account
		ORDER BY name ASC, id ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query account table: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account table: %w", err)
	}

	return accounts, nil
}

// TouchAccount bumps the account's updated_at. Run first inside a write
// transaction, it takes the account's write lock so that concurrent writers
// for the same account queue behind each other.
// Returns ErrAccountNotFound if no account with the given ID exists.
func (r *AccountRepository) TouchAccount(ctx context.Context, accountID string, at time.Time) error {
	query := `UPDATE account SET updated_at = ? WHERE id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query, formatTimestamp(at), accountID)
	if err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}

	return requireRow(result, apperrors.ErrAccountNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (model.Account, error) {
	var a model.Account
	var createdAtStr, updatedAtStr string

	if err := row.Scan(&a.ID, &a.Name, &createdAtStr, &updatedAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, err
		}
		return model.Account{}, fmt.Errorf("failed to scan account table results: %w", err)
	}

	var err error
	a.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Account{}, err
	}
	a.UpdatedAt, err = ParseTime(updatedAtStr)
	if err != nil {
		return model.Account{}, err
	}

	return a, nil
}
