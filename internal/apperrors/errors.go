package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrAccountNotFound indicates that an account with the given ID does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrLotNotFound indicates that a purchase lot with the given ID does not exist.
	ErrLotNotFound = errors.New("lot not found")

	// ErrSaleNotFound indicates that a sale with the given ID does not exist.
	ErrSaleNotFound = errors.New("sale not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInsufficientLots indicates that the requested sale quantity exceeds the
	// remaining shares across all lots of the ticker. Nothing is persisted.
	ErrInsufficientLots = errors.New("insufficient lots for sale")

	// ErrInvalidQuantity indicates a non-positive share quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidPrice indicates a non-positive unit price or unit cost.
	ErrInvalidPrice = errors.New("price must be positive")

	// ErrInvalidAmount indicates a non-positive money amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrOverReinvestment indicates a reinvested amount larger than the sale proceeds.
	ErrOverReinvestment = errors.New("reinvested amount exceeds sale proceeds")

	// ErrFutureSaleDate indicates a sale dated after today.
	ErrFutureSaleDate = errors.New("sale date is in the future")

	// ErrLotAccountMismatch indicates a lot that belongs to a different account than the sale.
	ErrLotAccountMismatch = errors.New("lot belongs to a different account")

	// Validation errors for required fields
	ErrInvalidAccountID = errors.New("account ID is required")
	ErrInvalidLotID     = errors.New("lot ID is required")
	ErrInvalidSaleID    = errors.New("sale ID is required")
)

// External collaborator and storage errors.
var (
	// ErrPriceUnavailable indicates that the price oracle could not supply a price.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrPersistenceFailure indicates that a storage transaction failed or was aborted.
	// No partial state is left behind; callers may retry.
	ErrPersistenceFailure = errors.New("persistence failure")
)

// Operation failure errors used as user-facing messages by the HTTP layer.
var (
	ErrFailedToRetrieveAccounts = errors.New("failed to retrieve accounts")
	ErrFailedToRetrieveLots     = errors.New("failed to retrieve lots")
	ErrFailedToRetrieveSales    = errors.New("failed to retrieve sales")
	ErrFailedToGetGainSummary   = errors.New("failed to get gain summary")
	ErrFailedToPreviewSale      = errors.New("failed to preview sale")
	ErrFailedToGetVersionInfo   = errors.New("failed to get version information")
)
