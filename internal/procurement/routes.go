package procurement

import "github.com/go-chi/chi/v5"

// MountRoutes attaches purchase order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/purchase-orders", h.Create)
	r.Get("/purchase-orders", h.List)
	r.Get("/purchase-orders/{id}", h.Get)
	r.Post("/purchase-orders/{id}/status", h.UpdateStatus)
}
