package report

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/printhouse-ops/printhouse/internal/invoices"
	"github.com/printhouse-ops/printhouse/internal/orders"
)

// InvoicePort loads invoices for rendering.
type InvoicePort interface {
	Get(ctx context.Context, id int64) (*invoices.Invoice, error)
}

// OrderPort loads the order backing an invoice.
type OrderPort interface {
	Get(ctx context.Context, id int64) (*orders.Order, error)
	ListPayments(ctx context.Context, orderID int64) ([]orders.Payment, error)
}

// Handler manages report endpoints.
type Handler struct {
	client   *Client
	invoices InvoicePort
	orders   OrderPort
	logger   *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, invoicePort InvoicePort, orderPort OrderPort, logger *slog.Logger) *Handler {
	return &Handler{client: client, invoices: invoicePort, orders: orderPort, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/invoices/{id}/pdf", h.invoicePDF)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, invoices.ErrNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("load invoice", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	order, err := h.orders.Get(r.Context(), inv.OrderID)
	if err != nil {
		h.logger.Error("load order", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	payments, err := h.orders.ListPayments(r.Context(), inv.OrderID)
	if err != nil {
		h.logger.Error("load payments", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	html, err := InvoiceHTML(InvoiceDocument{Invoice: inv, Order: order, Payments: payments})
	if err != nil {
		h.logger.Error("render invoice html", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	pdf, err := h.client.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render invoice pdf", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+FileName(inv))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
