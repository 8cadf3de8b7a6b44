package invoices

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/printhouse-ops/printhouse/internal/platform/httpx"
)

// Handler exposes invoice HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createInvoiceRequest struct {
	OrderID int64 `json:"order_id"`
}

// Create issues an invoice for an order.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if req.OrderID <= 0 {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	inv, err := h.service.CreateForOrder(r.Context(), req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		case errors.Is(err, ErrAlreadyInvoiced):
			httpx.RespondError(w, httpx.ErrConflict)
		default:
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// Get returns a single invoice.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// ListByCustomer returns a customer's invoices.
func (h *Handler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	list, err := h.service.ListByCustomer(r.Context(), customerID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}
