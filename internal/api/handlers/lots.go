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

// LotHandler handles HTTP requests for purchase lot endpoints.
type LotHandler struct {
	lotService  *service.LotService
	gainService *service.GainService
}

// NewLotHandler creates a new LotHandler with the provided service dependencies.
func NewLotHandler(lotService *service.LotService, gainService *service.GainService) *LotHandler {
	return &LotHandler{
		lotService:  lotService,
		gainService: gainService,
	}
}

// CreateLot handles POST requests to record a purchase lot.
// The lot is sized either by quantity and unit cost, or by an invested amount
// priced at the close on the acquisition date.
//
// Endpoint: POST /api/lot
// Request body: CreateLotRequest
// Response: 201 Created with Lot
// Error: 400 Bad Request if the body is invalid
// Error: 404 Not Found if the account does not exist
// Error: 502 Bad Gateway if no price is available for an amount-mode lot
func (h *LotHandler) CreateLot(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateLotRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateLot(req); err != nil {
		respondValidationError(w, err)
		return
	}

	lot, err := h.lotService.CreateLot(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "failed to create lot")
		return
	}

	response.RespondJSON(w, http.StatusCreated, lot)
}

// GetLot handles GET requests to retrieve a lot with its derived balance.
//
// Endpoint: GET /api/lot/{uuid}
// Response: 200 OK with Lot
// Error: 404 Not Found if the lot does not exist
func (h *LotHandler) GetLot(w http.ResponseWriter, r *http.Request) {
	lot, err := h.lotService.GetLot(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveLots.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, lot)
}

// DeleteLot handles DELETE requests for a lot. Sales that drew on the lot are
// deleted with it and reinvestment links pointing at it are cleared.
//
// Endpoint: DELETE /api/lot/{uuid}
// Response: 200 OK with LotDeletion
// Error: 404 Not Found if the lot does not exist
// Error: 503 Service Unavailable if the deletion could not be committed
func (h *LotHandler) DeleteLot(w http.ResponseWriter, r *http.Request) {
	deletion, err := h.lotService.DeleteLot(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, "failed to delete lot")
		return
	}

	response.RespondJSON(w, http.StatusOK, deletion)
}

// Balance handles GET requests for the acquired, assigned, and remaining shares of a lot.
//
// Endpoint: GET /api/lot/{uuid}/balance
// Response: 200 OK with LotBalance
// Error: 404 Not Found if the lot does not exist
func (h *LotHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.gainService.SharesRemaining(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveLots.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, balance)
}
