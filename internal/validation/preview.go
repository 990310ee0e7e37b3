package validation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PreviewParams are the parsed query parameters of a sale preview.
type PreviewParams struct {
	Ticker   string
	Quantity decimal.Decimal
	Price    decimal.NullDecimal
}

// ValidatePreviewParams parses and validates sale preview query parameters.
// ticker and quantity are required; price is optional.
func ValidatePreviewParams(ticker, quantity, price string) (PreviewParams, error) {
	errors := make(map[string]string)
	var params PreviewParams

	validateTicker(errors, "ticker", ticker)
	params.Ticker = strings.ToUpper(strings.TrimSpace(ticker))

	if strings.TrimSpace(quantity) == "" {
		errors["quantity"] = "quantity is required"
	} else if q, err := decimal.NewFromString(quantity); err != nil {
		errors["quantity"] = "quantity must be a number"
	} else {
		validatePositive(errors, "quantity", q)
		params.Quantity = q
	}

	if strings.TrimSpace(price) != "" {
		if p, err := decimal.NewFromString(price); err != nil {
			errors["price"] = "price must be a number"
		} else {
			validatePositive(errors, "price", p)
			params.Price = decimal.NewNullDecimal(p)
		}
	}

	if len(errors) > 0 {
		return PreviewParams{}, &Error{Fields: errors}
	}

	return params, nil
}
