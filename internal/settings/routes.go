package settings

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings", h.Show)
	r.Put("/settings", h.Update)
}
