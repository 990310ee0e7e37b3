package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common validation errors
var (
	ErrInvalidUUID = fmt.Errorf("invalid UUID format")
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^=]{0,9}$`)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// validateTicker records a field error when ticker is not 1-10 characters of
// letters, digits or the punctuation exchanges use in symbols.
func validateTicker(errors map[string]string, field, ticker string) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	switch {
	case t == "":
		errors[field] = "ticker is required"
	case !tickerPattern.MatchString(t):
		errors[field] = fmt.Sprintf("invalid ticker: %s", ticker)
	}
}

func validateDate(errors map[string]string, field, value string) {
	if strings.TrimSpace(value) == "" {
		errors[field] = field + " is required"
		return
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		errors[field] = fmt.Sprintf("%s must be in YYYY-MM-DD format", field)
	}
}

func validatePositive(errors map[string]string, field string, value decimal.Decimal) {
	if !value.IsPositive() {
		errors[field] = field + " must be positive"
	}
}
