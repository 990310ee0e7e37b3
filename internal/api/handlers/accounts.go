package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/service"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/validation"
)

// AccountHandler handles HTTP requests for account endpoints and the
// per-account views over lots, sales, and gains.
type AccountHandler struct {
	accountService *service.AccountService
	lotService     *service.LotService
	saleService    *service.SaleService
	gainService    *service.GainService
}

// NewAccountHandler creates a new AccountHandler with the provided service dependencies.
func NewAccountHandler(
	accountService *service.AccountService,
	lotService *service.LotService,
	saleService *service.SaleService,
	gainService *service.GainService,
) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		lotService:     lotService,
		saleService:    saleService,
		gainService:    gainService,
	}
}

// Accounts handles GET requests to list all accounts.
//
// Endpoint: GET /api/account
// Response: 200 OK with array of Account
// Error: 500 Internal Server Error if retrieval fails
func (h *AccountHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.GetAccounts(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveAccounts.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, accounts)
}

// CreateAccount handles POST requests to create an account.
//
// Endpoint: POST /api/account
// Request body: CreateAccountRequest
// Response: 201 Created with Account
// Error: 400 Bad Request if the body is invalid
// Error: 500 Internal Server Error if creation fails
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateAccountRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateAccount(req); err != nil {
		respondValidationError(w, err)
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "failed to create account")
		return
	}

	response.RespondJSON(w, http.StatusCreated, account)
}

// GetAccount handles GET requests to retrieve a single account.
//
// Endpoint: GET /api/account/{uuid}
// Response: 200 OK with Account
// Error: 400 Bad Request if account ID is invalid (validated by middleware)
// Error: 404 Not Found if the account does not exist
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountService.GetAccount(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveAccounts.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, account)
}

// GainSummary handles GET requests for the realized and unrealized gain of an account.
// The optional ticker query parameter restricts the summary to one ticker.
//
// Endpoint: GET /api/account/{uuid}/gain?ticker=
// Response: 200 OK with GainSummary
// Error: 404 Not Found if the account does not exist
// Error: 500 Internal Server Error if aggregation fails
func (h *AccountHandler) GainSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.gainService.GainSummary(r.Context(), chi.URLParam(r, "uuid"), r.URL.Query().Get("ticker"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToGetGainSummary.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}

// Lots handles GET requests for the lots of an account with their balances.
//
// Endpoint: GET /api/account/{uuid}/lot?ticker=
// Response: 200 OK with array of Lot
// Error: 404 Not Found if the account does not exist
func (h *AccountHandler) Lots(w http.ResponseWriter, r *http.Request) {
	lots, err := h.lotService.GetLots(r.Context(), chi.URLParam(r, "uuid"), r.URL.Query().Get("ticker"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveLots.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, lots)
}

// Sales handles GET requests for the sales of an account, newest first.
//
// Endpoint: GET /api/account/{uuid}/sale?ticker=
// Response: 200 OK with array of Sale
// Error: 404 Not Found if the account does not exist
func (h *AccountHandler) Sales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.saleService.GetSales(r.Context(), chi.URLParam(r, "uuid"), r.URL.Query().Get("ticker"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveSales.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, sales)
}

// PreviewSale handles GET requests to preview the FIFO assignment of a sale
// without recording it.
//
// Endpoint: GET /api/account/{uuid}/sale/preview?ticker=&quantity=&price=
// Response: 200 OK with SalePreview
// Error: 400 Bad Request if ticker or quantity is missing or invalid
// Error: 404 Not Found if the account does not exist
func (h *AccountHandler) PreviewSale(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params, err := validation.ValidatePreviewParams(q.Get("ticker"), q.Get("quantity"), q.Get("price"))
	if err != nil {
		respondValidationError(w, err)
		return
	}

	preview, err := h.saleService.PreviewAssignment(r.Context(), chi.URLParam(r, "uuid"), params.Ticker, params.Quantity, params.Price)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToPreviewSale.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, preview)
}
