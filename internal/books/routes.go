package books

import (
	"github.com/go-chi/chi/v5"

	"github.com/shelfline/shelfline/internal/auth"
)

// MountRoutes registers book routes behind the auth gate.
func (h *Handler) MountRoutes(r chi.Router, gate *auth.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAuth)
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}
