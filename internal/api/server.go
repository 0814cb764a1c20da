package api

import (
	"net/http"
	"time"

	agentsapi "github.com/avara-hq/avara-backend/internal/api/agents"
	chatapi "github.com/avara-hq/avara-backend/internal/api/chat"
	"github.com/avara-hq/avara-backend/internal/api/docs"
	"github.com/avara-hq/avara-backend/internal/api/middleware"
	researchapi "github.com/avara-hq/avara-backend/internal/api/research"
	"github.com/avara-hq/avara-backend/internal/config"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	researchHandler *researchapi.Handler,
	agentsHandler *agentsapi.Handler,
	chatHandler *chatapi.Handler,
	authCfg config.AuthConfig,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                 // Recover from panics
	r.Use(chimiddleware.RequestID)                 // Add request ID
	r.Use(middleware.Logger(logger))               // Log requests
	r.Use(middleware.CORS)                         // Handle CORS
	r.Use(chimiddleware.Timeout(60 * time.Second)) // Default timeout

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Everything below requires a bearer token
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))

		researchapi.RegisterRoutes(r, researchHandler)
		agentsapi.RegisterRoutes(r, agentsHandler)
		chatapi.RegisterRoutes(r, chatHandler)
	})

	return r
}
