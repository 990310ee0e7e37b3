package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/model"
)

// AccountBuilder provides a fluent interface for creating test accounts.
//
// Example usage:
//
//	// Simple creation with defaults
//	account := testutil.NewAccount().Build(t, db)
//
//	// Customized account
//	account := testutil.NewAccount().WithName("Brokerage").Build(t, db)
type AccountBuilder struct {
	ID   string
	Name string
}

// NewAccount creates an AccountBuilder with sensible defaults.
func NewAccount() *AccountBuilder {
	return &AccountBuilder{
		ID:   MakeID(),
		Name: MakeAccountName("Test Account"),
	}
}

// WithID sets a custom ID.
func (b *AccountBuilder) WithID(id string) *AccountBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *AccountBuilder) WithName(name string) *AccountBuilder {
	b.Name = name
	return b
}

// Build creates the account in the database and returns it.
func (b *AccountBuilder) Build(t *testing.T, db *sql.DB) model.Account {
	t.Helper()

	now := time.Now().UTC()
	query := `
		INSERT INTO account (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Name, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}

	return model.Account{
		ID:        b.ID,
		Name:      b.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LotBuilder provides a fluent interface for creating test lots.
//
// Example usage:
//
//	lot := testutil.NewLot(account.ID, "VTI").
//	    WithQuantity("100").
//	    WithUnitCost("10").
//	    WithAcquiredOn(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)).
//	    Build(t, db)
type LotBuilder struct {
	ID         string
	AccountID  string
	Ticker     string
	AcquiredOn time.Time
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
}

// NewLot creates a LotBuilder for the account and ticker with sensible defaults.
func NewLot(accountID, ticker string) *LotBuilder {
	return &LotBuilder{
		ID:         MakeID(),
		AccountID:  accountID,
		Ticker:     ticker,
		AcquiredOn: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Quantity:   decimal.NewFromInt(10),
		UnitCost:   decimal.NewFromInt(100),
	}
}

// WithID sets a custom ID.
func (b *LotBuilder) WithID(id string) *LotBuilder {
	b.ID = id
	return b
}

// WithAcquiredOn sets the acquisition date.
func (b *LotBuilder) WithAcquiredOn(date time.Time) *LotBuilder {
	b.AcquiredOn = date
	return b
}

// WithQuantity sets the acquired quantity from a decimal string.
func (b *LotBuilder) WithQuantity(quantity string) *LotBuilder {
	b.Quantity = decimal.RequireFromString(quantity)
	return b
}

// WithUnitCost sets the unit cost from a decimal string.
func (b *LotBuilder) WithUnitCost(cost string) *LotBuilder {
	b.UnitCost = decimal.RequireFromString(cost)
	return b
}

// Build creates the lot in the database and returns it with zero assigned.
func (b *LotBuilder) Build(t *testing.T, db *sql.DB) model.Lot {
	t.Helper()

	now := time.Now().UTC()
	amount := b.Quantity.Mul(b.UnitCost)
	query := `
		INSERT INTO purchase (id, account_id, ticker, acquired_on, quantity, unit_cost, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID,
		b.AccountID,
		b.Ticker,
		b.AcquiredOn.Format("2006-01-02"),
		b.Quantity.String(),
		b.UnitCost.String(),
		amount.String(),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		t.Fatalf("Failed to create test lot: %v", err)
	}

	lot := model.Lot{
		ID:               b.ID,
		AccountID:        b.AccountID,
		Ticker:           b.Ticker,
		AcquiredOn:       b.AcquiredOn,
		QuantityAcquired: b.Quantity,
		UnitCost:         b.UnitCost,
		Amount:           amount,
		CreatedAt:        now,
	}
	lot.ApplyAssigned(decimal.Zero)
	return lot
}

// SaleBuilder inserts a sale row with assignments supplied by the test.
// It bypasses the FIFO engine, so tests can set up arbitrary ledgers.
//
// Example usage:
//
//	sale := testutil.NewSale(account.ID, "VTI").
//	    WithQuantity("5").
//	    WithUnitPrice("12").
//	    Assign(lot, "5").
//	    Build(t, db)
type SaleBuilder struct {
	ID          string
	AccountID   string
	Ticker      string
	SaleDate    time.Time
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	assignments []builderAssignment
}

type builderAssignment struct {
	lot      model.Lot
	quantity decimal.Decimal
}

// NewSale creates a SaleBuilder for the account and ticker with sensible defaults.
func NewSale(accountID, ticker string) *SaleBuilder {
	return &SaleBuilder{
		ID:        MakeID(),
		AccountID: accountID,
		Ticker:    ticker,
		SaleDate:  time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: decimal.NewFromInt(100),
	}
}

// WithSaleDate sets the sale date.
func (b *SaleBuilder) WithSaleDate(date time.Time) *SaleBuilder {
	b.SaleDate = date
	return b
}

// WithQuantity sets the sold quantity from a decimal string.
func (b *SaleBuilder) WithQuantity(quantity string) *SaleBuilder {
	b.Quantity = decimal.RequireFromString(quantity)
	return b
}

// WithUnitPrice sets the sale price from a decimal string.
func (b *SaleBuilder) WithUnitPrice(price string) *SaleBuilder {
	b.UnitPrice = decimal.RequireFromString(price)
	return b
}

// Assign adds an assignment of quantity shares from lot.
func (b *SaleBuilder) Assign(lot model.Lot, quantity string) *SaleBuilder {
	b.assignments = append(b.assignments, builderAssignment{lot: lot, quantity: decimal.RequireFromString(quantity)})
	return b
}

// Build creates the sale and its assignments in the database and returns the sale.
func (b *SaleBuilder) Build(t *testing.T, db *sql.DB) model.Sale {
	t.Helper()

	now := time.Now().UTC()
	proceeds := b.Quantity.Mul(b.UnitPrice)

	_, err := db.Exec(`
		INSERT INTO sale (id, account_id, ticker, sale_date, quantity, unit_price, total_proceeds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID,
		b.AccountID,
		b.Ticker,
		b.SaleDate.Format("2006-01-02"),
		b.Quantity.String(),
		b.UnitPrice.String(),
		proceeds.String(),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		t.Fatalf("Failed to create test sale: %v", err)
	}

	sale := model.Sale{
		ID:            b.ID,
		AccountID:     b.AccountID,
		Ticker:        b.Ticker,
		SaleDate:      b.SaleDate,
		QuantitySold:  b.Quantity,
		UnitPrice:     b.UnitPrice,
		TotalProceeds: proceeds,
		CreatedAt:     now,
		Assignments:   []model.Assignment{},
	}

	for _, ba := range b.assignments {
		a := model.NewAssignment(MakeID(), ba.lot.ID, b.ID, ba.quantity, ba.lot.UnitCost, b.UnitPrice)
		_, err := db.Exec(`
			INSERT INTO purchase_sale_assignment
			(id, purchase_id, sale_id, quantity, cost_basis, proceeds, realized_gain_loss)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, a.ID, a.LotID, a.SaleID, a.QuantityAssigned.String(), a.CostBasis.String(), a.Proceeds.String(), a.RealizedGainLoss.String())
		if err != nil {
			t.Fatalf("Failed to create test assignment: %v", err)
		}
		sale.Assignments = append(sale.Assignments, a)
	}

	return sale
}

// Convenience functions

// CreateAccount creates an account with the given name.
//
// Example usage:
//
//	account := testutil.CreateAccount(t, db, "Brokerage")
func CreateAccount(t *testing.T, db *sql.DB, name string) model.Account {
	t.Helper()
	return NewAccount().WithName(name).Build(t, db)
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
