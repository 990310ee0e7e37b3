package validation

import (
	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/request"
)

// ValidateCreateLot validates a lot creation request.
//
// Required fields:
//   - accountId: Must be a valid UUID
//   - ticker: 1-10 characters
//   - acquiredOn: Must be in YYYY-MM-DD format
//
// Exactly one sizing mode must be used:
//   - quantity and unitCost, both positive
//   - amount, positive, with an optional positive unitCost
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateLot(req request.CreateLotRequest) error {
	if err := ValidateUUID(req.AccountID); err != nil {
		return err
	}

	errors := make(map[string]string)

	validateTicker(errors, "ticker", req.Ticker)
	validateDate(errors, "acquiredOn", req.AcquiredOn)

	switch {
	case req.Quantity.Valid && req.Amount.Valid:
		errors["amount"] = "provide either quantity or amount, not both"
	case req.Quantity.Valid:
		validatePositive(errors, "quantity", req.Quantity.Decimal)
		if !req.UnitCost.Valid {
			errors["unitCost"] = "unitCost is required with quantity"
		}
	case req.Amount.Valid:
		validatePositive(errors, "amount", req.Amount.Decimal)
	default:
		errors["quantity"] = "quantity or amount is required"
	}

	if req.UnitCost.Valid {
		validatePositive(errors, "unitCost", req.UnitCost.Decimal)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
