package agents

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the downstream agent routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/core", func(r chi.Router) {
		r.Post("/generate", h.GenerateCoreBusiness)
		r.Get("/{project_id}", h.GetCoreBusiness)
	})

	r.Route("/risk", func(r chi.Router) {
		r.Post("/generate", h.GenerateRisks)
		r.Post("/analyse", h.AnalyseRisk)
		r.Get("/{project_id}", h.GetRisks)
	})

	r.Route("/roadmap", func(r chi.Router) {
		r.Post("/generate", h.GenerateRoadmap)
		r.Get("/{project_id}", h.GetRoadmap)
	})

	r.Route("/task", func(r chi.Router) {
		r.Post("/generate", h.GenerateTasks)
		r.Get("/{project_id}", h.GetTasks)
	})
}
