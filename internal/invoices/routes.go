package invoices

import "github.com/go-chi/chi/v5"

// MountRoutes attaches invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/invoices", h.Create)
	r.Get("/invoices/{id}", h.Get)
	r.Get("/customers/{customerID}/invoices", h.ListByCustomer)
}
