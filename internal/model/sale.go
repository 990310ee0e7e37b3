package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one disposal event. It is always persisted together with the
// assignments that cover its quantity.
type Sale struct {
	ID                string              `json:"id"`
	AccountID         string              `json:"accountId"`
	Ticker            string              `json:"ticker"`
	SaleDate          time.Time           `json:"saleDate"`
	QuantitySold      decimal.Decimal     `json:"quantitySold"`
	UnitPrice         decimal.Decimal     `json:"unitPrice"`
	TotalProceeds     decimal.Decimal     `json:"totalProceeds"`
	ReinvestmentLotID string              `json:"reinvestmentLotId,omitempty"`
	ReinvestedAmount  decimal.NullDecimal `json:"reinvestedAmount"`
	CashRetained      decimal.NullDecimal `json:"cashRetained"`
	CreatedAt         time.Time           `json:"createdAt"`
	Assignments       []Assignment        `json:"assignments"`
}

// CostBasis sums the cost basis of the sale's assignments.
func (s Sale) CostBasis() decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.Assignments {
		total = total.Add(a.CostBasis)
	}
	return total
}

// RealizedGainLoss sums the realized gain/loss of the sale's assignments.
func (s Sale) RealizedGainLoss() decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.Assignments {
		total = total.Add(a.RealizedGainLoss)
	}
	return total
}

// QuantityAssigned sums the assigned quantities of the sale's assignments.
func (s Sale) QuantityAssigned() decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.Assignments {
		total = total.Add(a.QuantityAssigned)
	}
	return total
}

// Assignment links one lot to one sale for a partial or full consumption of the lot.
type Assignment struct {
	ID               string          `json:"id"`
	LotID            string          `json:"lotId"`
	SaleID           string          `json:"saleId"`
	QuantityAssigned decimal.Decimal `json:"quantityAssigned"`
	CostBasis        decimal.Decimal `json:"costBasis"`
	Proceeds         decimal.Decimal `json:"proceeds"`
	RealizedGainLoss decimal.Decimal `json:"realizedGainLoss"`
}

// NewAssignment prices a quantity taken from a lot at the given cost and sale price.
func NewAssignment(id, lotID, saleID string, quantity, unitCost, unitPrice decimal.Decimal) Assignment {
	costBasis := quantity.Mul(unitCost)
	proceeds := quantity.Mul(unitPrice)
	return Assignment{
		ID:               id,
		LotID:            lotID,
		SaleID:           saleID,
		QuantityAssigned: quantity,
		CostBasis:        costBasis,
		Proceeds:         proceeds,
		RealizedGainLoss: proceeds.Sub(costBasis),
	}
}

// SalePreview is the side-effect-free result of running FIFO for a hypothetical sale.
type SalePreview struct {
	AccountID      string              `json:"accountId"`
	Ticker         string              `json:"ticker"`
	Quantity       decimal.Decimal     `json:"quantity"`
	Allocations    []PreviewAllocation `json:"allocations"`
	TotalCostBasis decimal.Decimal     `json:"totalCostBasis"`
	TotalAvailable decimal.Decimal     `json:"totalAvailable"`
	IsSufficient   bool                `json:"isSufficient"`
	// SharesRemainingAfter is null when the sale could not be covered.
	SharesRemainingAfter decimal.NullDecimal `json:"sharesRemainingAfter"`
	// Estimated values are only filled when a price is supplied.
	EstimatedProceeds         decimal.NullDecimal `json:"estimatedProceeds"`
	EstimatedRealizedGainLoss decimal.NullDecimal `json:"estimatedRealizedGainLoss"`
}

// PreviewAllocation describes how much a single lot would contribute to a sale.
type PreviewAllocation struct {
	LotID           string          `json:"lotId"`
	AcquiredOn      time.Time       `json:"acquiredOn"`
	UnitCost        decimal.Decimal `json:"unitCost"`
	SharesAvailable decimal.Decimal `json:"sharesAvailable"`
	SharesToAssign  decimal.Decimal `json:"sharesToAssign"`
	CostBasis       decimal.Decimal `json:"costBasis"`
}
