package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a single purchase of a security, tracked independently for cost-basis purposes.
// Only QuantityAssigned and QuantityRemaining change over its lifetime; both are
// derived from the assignments that reference the lot.
type Lot struct {
	ID                string          `json:"id"`
	AccountID         string          `json:"accountId"`
	Ticker            string          `json:"ticker"`
	AcquiredOn        time.Time       `json:"acquiredOn"`
	QuantityAcquired  decimal.Decimal `json:"quantityAcquired"`
	UnitCost          decimal.Decimal `json:"unitCost"`
	Amount            decimal.Decimal `json:"amount"`
	CreatedAt         time.Time       `json:"createdAt"`
	QuantityAssigned  decimal.Decimal `json:"quantityAssigned"`
	QuantityRemaining decimal.Decimal `json:"quantityRemaining"`
}

// ApplyAssigned sets the derived balances from the total quantity assigned to the lot.
func (l *Lot) ApplyAssigned(assigned decimal.Decimal) {
	l.QuantityAssigned = assigned
	l.QuantityRemaining = l.QuantityAcquired.Sub(assigned)
}

// CostBasisRemaining is the acquisition cost of the shares still held.
func (l Lot) CostBasisRemaining() decimal.Decimal {
	return l.QuantityRemaining.Mul(l.UnitCost)
}

// LotBalance partitions a lot's acquired shares into assigned and remaining.
// QuantityAssigned + QuantityRemaining == QuantityAcquired holds exactly.
type LotBalance struct {
	LotID             string          `json:"lotId"`
	Ticker            string          `json:"ticker"`
	QuantityAcquired  decimal.Decimal `json:"quantityAcquired"`
	QuantityAssigned  decimal.Decimal `json:"quantityAssigned"`
	QuantityRemaining decimal.Decimal `json:"quantityRemaining"`
}

// Balance returns the lot's share partition.
func (l Lot) Balance() LotBalance {
	return LotBalance{
		LotID:             l.ID,
		Ticker:            l.Ticker,
		QuantityAcquired:  l.QuantityAcquired,
		QuantityAssigned:  l.QuantityAssigned,
		QuantityRemaining: l.QuantityRemaining,
	}
}

// LotDeletion reports what a lot deletion removed along with the lot itself.
type LotDeletion struct {
	LotID           string   `json:"lotId"`
	DeletedSaleIDs  []string `json:"deletedSaleIds"`
	UnlinkedSaleIDs []string `json:"unlinkedSaleIds"`
}
