package quotes

import "github.com/go-chi/chi/v5"

// MountRoutes attaches quote routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/quotes/{id}/estimate", h.Estimate)
}
