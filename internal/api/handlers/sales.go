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

// SaleHandler handles HTTP requests for sale endpoints.
type SaleHandler struct {
	saleService *service.SaleService
}

// NewSaleHandler creates a new SaleHandler with the provided service dependency.
func NewSaleHandler(saleService *service.SaleService) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
	}
}

// CreateSale handles POST requests to record a sale. Shares are assigned to
// the account's lots in FIFO order; nothing is recorded when the lots cannot
// cover the quantity.
//
// Endpoint: POST /api/sale
// Request body: CreateSaleRequest
// Response: 201 Created with Sale including assignments
// Error: 400 Bad Request if the body is invalid or the lots are insufficient
// Error: 404 Not Found if the account does not exist
// Error: 503 Service Unavailable if the sale could not be committed
func (h *SaleHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateSaleRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateSale(req); err != nil {
		respondValidationError(w, err)
		return
	}

	sale, err := h.saleService.RecordSale(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "failed to record sale")
		return
	}

	response.RespondJSON(w, http.StatusCreated, sale)
}

// GetSale handles GET requests to retrieve a sale with its assignments.
//
// Endpoint: GET /api/sale/{uuid}
// Response: 200 OK with Sale
// Error: 404 Not Found if the sale does not exist
func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.saleService.GetSale(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveSales.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, sale)
}

// DeleteSale handles DELETE requests for a sale, releasing its assigned shares.
//
// Endpoint: DELETE /api/sale/{uuid}
// Response: 204 No Content
// Error: 404 Not Found if the sale does not exist
func (h *SaleHandler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.saleService.DeleteSale(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, "failed to delete sale")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LinkReinvestment handles PUT requests to link a sale's proceeds to a lot.
// A new link replaces any previous one.
//
// Endpoint: PUT /api/sale/{uuid}/reinvestment
// Request body: LinkReinvestmentRequest
// Response: 200 OK with Sale
// Error: 400 Bad Request if the amount exceeds the proceeds or the lot belongs to another account
// Error: 404 Not Found if the sale or lot does not exist
func (h *SaleHandler) LinkReinvestment(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.LinkReinvestmentRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateLinkReinvestment(req); err != nil {
		respondValidationError(w, err)
		return
	}

	sale, err := h.saleService.LinkReinvestment(r.Context(), chi.URLParam(r, "uuid"), req)
	if err != nil {
		respondServiceError(w, err, "failed to link reinvestment")
		return
	}

	response.RespondJSON(w, http.StatusOK, sale)
}
