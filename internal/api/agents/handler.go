package agents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avara-hq/avara-backend/internal/api/middleware"
	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/avara-hq/avara-backend/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase AgentsUsecase
}

func NewHandler(usecase AgentsUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// GenerateCoreBusiness handles POST /core/generate
func (h *Handler) GenerateCoreBusiness(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GenerateCoreBusiness")

	req, ok := h.decodeGenerate(ctx, w, r)
	if !ok {
		return
	}

	resp, err := h.usecase.GenerateCoreBusiness(ctx, middleware.UserID(ctx), req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetCoreBusiness handles GET /core/{project_id}
func (h *Handler) GetCoreBusiness(w http.ResponseWriter, r *http.Request) {
	ctx, projectID := h.readContext(r, "GetCoreBusiness")

	resp, err := h.usecase.GetCoreBusiness(ctx, middleware.UserID(ctx), projectID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GenerateRisks handles POST /risk/generate
func (h *Handler) GenerateRisks(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GenerateRisks")

	req, ok := h.decodeGenerate(ctx, w, r)
	if !ok {
		return
	}

	resp, err := h.usecase.GenerateRisks(ctx, middleware.UserID(ctx), req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// AnalyseRisk handles POST /risk/analyse
func (h *Handler) AnalyseRisk(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "AnalyseRisk")

	var req entity.AnalyseRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ctxzap.Info(ctx, "analysing risk scope",
		zap.String("project_id", req.ProjectID),
		zap.String("scope", string(req.Scope)),
	)

	resp, err := h.usecase.AnalyseRisk(ctx, middleware.UserID(ctx), &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetRisks handles GET /risk/{project_id}
func (h *Handler) GetRisks(w http.ResponseWriter, r *http.Request) {
	ctx, projectID := h.readContext(r, "GetRisks")

	resp, err := h.usecase.GetRisks(ctx, middleware.UserID(ctx), projectID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GenerateRoadmap handles POST /roadmap/generate
func (h *Handler) GenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GenerateRoadmap")

	req, ok := h.decodeGenerate(ctx, w, r)
	if !ok {
		return
	}

	resp, err := h.usecase.GenerateRoadmap(ctx, middleware.UserID(ctx), req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetRoadmap handles GET /roadmap/{project_id}
func (h *Handler) GetRoadmap(w http.ResponseWriter, r *http.Request) {
	ctx, projectID := h.readContext(r, "GetRoadmap")

	resp, err := h.usecase.GetRoadmap(ctx, middleware.UserID(ctx), projectID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GenerateTasks handles POST /task/generate
func (h *Handler) GenerateTasks(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GenerateTasks")

	req, ok := h.decodeGenerate(ctx, w, r)
	if !ok {
		return
	}

	resp, err := h.usecase.GenerateTasks(ctx, middleware.UserID(ctx), req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetTasks handles GET /task/{project_id}
func (h *Handler) GetTasks(w http.ResponseWriter, r *http.Request) {
	ctx, projectID := h.readContext(r, "GetTasks")

	resp, err := h.usecase.GetTasks(ctx, middleware.UserID(ctx), projectID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// Helper methods
func (h *Handler) readContext(r *http.Request, action string) (context.Context, string) {
	projectID := chi.URLParam(r, "project_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("project_id", projectID),
		zap.String("action", action),
	)
	return ctx, projectID
}

func (h *Handler) decodeGenerate(ctx context.Context, w http.ResponseWriter, r *http.Request) (*entity.GenerateRequest, bool) {
	var req entity.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return nil, false
	}
	return &req, true
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	h.respondJSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, entity.ErrResearchDocNotFound) || errors.Is(err, entity.ErrProjectNotFound) {
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	} else if errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrMissingField) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	} else {
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
