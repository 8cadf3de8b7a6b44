package quotes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/printhouse-ops/printhouse/internal/platform/httpx"
)

// Handler serves the quote estimate endpoint. Authentication happens
// upstream; the gateway forwards the authenticated customer in X-Customer-ID.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type estimateResponse struct {
	QuoteID  int64   `json:"quote_id"`
	Subtotal float64 `json:"subtotal"`
}

// Estimate recomputes and returns the quote's estimate subtotal.
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	quoteID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid quote id")
		return
	}
	customerID, err := strconv.ParseInt(r.Header.Get("X-Customer-ID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "missing customer identity")
		return
	}

	subtotal, err := h.service.Recompute(r.Context(), quoteID, customerID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		case errors.Is(err, ErrForbidden):
			httpx.RespondError(w, httpx.ErrForbidden)
		default:
			h.logger.Error("recompute estimate", slog.Int64("quote_id", quoteID), slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}

	httpx.JSON(w, http.StatusOK, estimateResponse{QuoteID: quoteID, Subtotal: subtotal.InexactFloat64()})
}
