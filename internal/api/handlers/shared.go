package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/validation"
)

// parseJSON decodes the request body into T.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, fmt.Errorf("request body is empty")
	}
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

// badRequestErrors are business rule violations surfaced to the user as 400.
var badRequestErrors = []error{
	apperrors.ErrInsufficientLots,
	apperrors.ErrInvalidQuantity,
	apperrors.ErrInvalidPrice,
	apperrors.ErrInvalidAmount,
	apperrors.ErrOverReinvestment,
	apperrors.ErrFutureSaleDate,
	apperrors.ErrLotAccountMismatch,
	apperrors.ErrInvalidAccountID,
	apperrors.ErrInvalidLotID,
	apperrors.ErrInvalidSaleID,
}

var notFoundErrors = []error{
	apperrors.ErrAccountNotFound,
	apperrors.ErrLotNotFound,
	apperrors.ErrSaleNotFound,
}

// respondServiceError maps a service error to a status code. message is used
// for errors that do not match a known class.
func respondServiceError(w http.ResponseWriter, err error, message string) {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		response.RespondError(w, http.StatusBadRequest, "validation failed", vErr.Fields)
		return
	}

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			response.RespondError(w, http.StatusNotFound, target.Error(), err.Error())
			return
		}
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			response.RespondError(w, http.StatusBadRequest, target.Error(), err.Error())
			return
		}
	}

	switch {
	case errors.Is(err, apperrors.ErrPriceUnavailable):
		response.RespondError(w, http.StatusBadGateway, apperrors.ErrPriceUnavailable.Error(), err.Error())
	case errors.Is(err, apperrors.ErrPersistenceFailure):
		response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrPersistenceFailure.Error(), err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, message, err.Error())
	}
}

// respondValidationError writes a 400 for a request that failed validation.
func respondValidationError(w http.ResponseWriter, err error) {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		response.RespondError(w, http.StatusBadRequest, "validation failed", vErr.Fields)
		return
	}
	response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
}
