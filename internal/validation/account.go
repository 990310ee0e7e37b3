package validation

import (
	"strings"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/request"
)

// ValidateCreateAccount validates an account creation request.
// The name is required and limited to 100 characters.
func ValidateCreateAccount(req request.CreateAccountRequest) error {
	errors := make(map[string]string)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errors["name"] = "name is required"
	} else if len(name) > 100 {
		errors["name"] = "name must be 100 characters or less"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
