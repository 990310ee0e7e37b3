package validation

import (
	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/request"
)

// ValidateCreateSale validates a sale request.
//
// Required fields:
//   - accountId: Must be a valid UUID
//   - ticker: 1-10 characters
//   - saleDate: Must be in YYYY-MM-DD format
//   - quantity: Must be positive
//   - unitPrice: Must be positive
//
// When a reinvestment block is present its ticker is required, its amount must
// be positive and not exceed quantity × unitPrice, and a unitPrice, if given,
// must be positive.
func ValidateCreateSale(req request.CreateSaleRequest) error {
	if err := ValidateUUID(req.AccountID); err != nil {
		return err
	}

	errors := make(map[string]string)

	validateTicker(errors, "ticker", req.Ticker)
	validateDate(errors, "saleDate", req.SaleDate)
	validatePositive(errors, "quantity", req.Quantity)
	validatePositive(errors, "unitPrice", req.UnitPrice)

	if r := req.Reinvestment; r != nil {
		validateTicker(errors, "reinvestment.ticker", r.Ticker)
		if !r.Amount.IsPositive() {
			errors["reinvestment.amount"] = "reinvestment.amount must be positive"
		} else if r.Amount.GreaterThan(req.Quantity.Mul(req.UnitPrice)) {
			errors["reinvestment.amount"] = "reinvestment.amount exceeds sale proceeds"
		}
		if r.UnitPrice.Valid && !r.UnitPrice.Decimal.IsPositive() {
			errors["reinvestment.unitPrice"] = "reinvestment.unitPrice must be positive"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateLinkReinvestment validates a reinvestment link request.
// The lot ID must be a UUID and the amount positive.
func ValidateLinkReinvestment(req request.LinkReinvestmentRequest) error {
	if err := ValidateUUID(req.LotID); err != nil {
		return err
	}

	errors := make(map[string]string)
	validatePositive(errors, "amount", req.Amount)

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
