package chat

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers chat agent routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/chat/{service}/{project_id}", h.Chat)
}
