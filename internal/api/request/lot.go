package request

import "github.com/shopspring/decimal"

// CreateLotRequest records a purchase. Either Quantity with UnitCost, or
// Amount (optionally with UnitCost) must be given. In amount mode without a
// unit cost, the close on AcquiredOn is used.
type CreateLotRequest struct {
	AccountID  string              `json:"accountId"`
	Ticker     string              `json:"ticker"`
	AcquiredOn string              `json:"acquiredOn"`
	Quantity   decimal.NullDecimal `json:"quantity"`
	UnitCost   decimal.NullDecimal `json:"unitCost"`
	Amount     decimal.NullDecimal `json:"amount"`
}
