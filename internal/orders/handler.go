package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/printhouse-ops/printhouse/internal/platform/httpx"
)

// Handler wires HTTP endpoints for orders and payments.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// Create handles POST /orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	order, err := h.service.Create(r.Context(), CreateOrderInput{
		CustomerID:  req.CustomerID,
		QuoteID:     req.QuoteID,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		h.respondServiceError(w, err, "create order")
		return
	}
	httpx.JSON(w, http.StatusCreated, orderResponse(order))
}

// Get handles GET /orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "get order")
		return
	}
	httpx.JSON(w, http.StatusOK, orderResponse(order))
}

// RecordPayment handles POST /orders/{id}/payments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "id")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	payment, order, err := h.service.RecordPayment(r.Context(), orderID, PaymentInput{
		Amount: req.Amount,
		Method: req.Method,
		Status: PaymentStatus(req.Status),
	})
	if err != nil {
		h.respondServiceError(w, err, "record payment")
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"payment_id":  payment.ID,
		"reference":   payment.Reference,
		"status":      payment.Status,
		"balance_due": order.BalanceDue,
	})
}

// UpdatePaymentStatus handles POST /orders/{id}/payments/{paymentID}/status.
func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "id")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	paymentID, ok := pathID(r, "paymentID")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment id")
		return
	}
	var req UpdatePaymentStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	order, err := h.service.UpdatePaymentStatus(r.Context(), orderID, paymentID, PaymentStatus(req.Status))
	if err != nil {
		h.respondServiceError(w, err, "update payment status")
		return
	}
	httpx.JSON(w, http.StatusOK, BalanceResponse{
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
		BalanceDue:  order.BalanceDue,
	})
}

// Reconcile handles POST /orders/{id}/reconcile.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "id")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	order, err := h.service.Reconcile(r.Context(), orderID)
	if err != nil {
		h.respondServiceError(w, err, "reconcile order")
		return
	}
	httpx.JSON(w, http.StatusOK, BalanceResponse{
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
		BalanceDue:  order.BalanceDue,
	})
}
