package research

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers research orchestrator routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/research", func(r chi.Router) {
		r.Post("/start", h.StartResearch)
		r.Post("/draft", h.SaveDraft)
		r.Put("/core", h.UpdateCore)

		r.Route("/{project_id}", func(r chi.Router) {
			r.Get("/", h.GetResearch)
			r.Get("/draft", h.GetDraft)
			r.Get("/export", h.ExportResearch)
			r.Post("/lock", h.LockCore)
			r.Post("/gate", h.AdvanceGates)
			r.Post("/clarify", h.SubmitClarification)
		})
	})

	r.Get("/projects", h.ListProjects)
}
