package orders

import "github.com/go-chi/chi/v5"

// MountRoutes attaches order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Get("/orders/{id}", h.Get)
	r.Post("/orders/{id}/payments", h.RecordPayment)
	r.Post("/orders/{id}/payments/{paymentID}/status", h.UpdatePaymentStatus)
	r.Post("/orders/{id}/reconcile", h.Reconcile)
}
