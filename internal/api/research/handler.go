package research

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/avara-hq/avara-backend/internal/api/middleware"
	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/avara-hq/avara-backend/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase ResearchUsecase
}

func NewHandler(usecase ResearchUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// StartResearch handles POST /research/start
func (h *Handler) StartResearch(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartResearch")
	userID := middleware.UserID(ctx)

	var req entity.StartResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ctxzap.Info(ctx, "starting research",
		zap.String("project_id", req.ProjectID),
		zap.String("path_type", string(req.PathType)),
	)

	resp, err := h.usecase.StartResearch(ctx, userID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "research started successfully",
		zap.String("project_id", req.ProjectID),
		zap.String("state", string(resp.Context.State)),
	)

	h.respondJSON(w, http.StatusOK, resp)
}

// GetResearch handles GET /research/{project_id}
func (h *Handler) GetResearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "project_id")

	ctx = logger.AddFields(ctx,
		zap.String("project_id", projectID),
		zap.String("action", "GetResearch"),
	)

	ctxzap.Debug(ctx, "fetching research document")

	resp, err := h.usecase.GetResearch(ctx, middleware.UserID(ctx), projectID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// SaveDraft handles POST /research/draft
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SaveDraft")
	userID := middleware.UserID(ctx)

	var req entity.SaveDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.usecase.SaveDraft(ctx, userID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "draft saved",
		zap.String("project_id", req.ProjectID),
		zap.Int("step", req.Step),
	)

	h.respondJSON(w, http.StatusOK, resp)
}

// GetDraft handles GET /research/{project_id}/draft. A project without
// a saved draft answers 204, not an empty object.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "project_id")

	ctx = logger.AddFields(ctx,
		zap.String("project_id", projectID),
		zap.String("action", "GetDraft"),
	)

	resp, err := h.usecase.GetDraft(ctx, middleware.UserID(ctx), projectID)
	if err != nil {
		if errors.Is(err, entity.ErrDraftNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// UpdateCore handles PUT /research/core
func (h *Handler) UpdateCore(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UpdateCore")
	userID := middleware.UserID(ctx)

	var req entity.UpdateCoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ctxzap.Info(ctx, "updating core field",
		zap.String("project_id", req.ProjectID),
		zap.String("field", string(req.Field)),
		zap.Bool("validate", req.Validate),
	)

	resp, err := h.usecase.UpdateCore(ctx, userID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// LockCore handles POST /research/{project_id}/lock
func (h *Handler) LockCore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "project_id")

	ctx = logger.AddFields(ctx,
		zap.String("project_id", projectID),
		zap.String("action", "LockCore"),
	)

	ctxzap.Info(ctx, "locking core triad")

	resp, err := h.usecase.LockCore(ctx, middleware.UserID(ctx), projectID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "core locked successfully")
	h.respondJSON(w, http.StatusOK, resp)
}

// AdvanceGates handles POST /research/{project_id}/gate
func (h *Handler) AdvanceGates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "project_id")

	ctx = logger.AddFields(ctx,
		zap.String("project_id", projectID),
		zap.String("action", "AdvanceGates"),
	)

	var req entity.AdvanceGatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.usecase.AdvanceGates(ctx, middleware.UserID(ctx), projectID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "gates advanced", zap.String("state", string(resp.Context.State)))
	h.respondJSON(w, http.StatusOK, resp)
}

// SubmitClarification handles POST /research/{project_id}/clarify
func (h *Handler) SubmitClarification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "project_id")

	ctx = logger.AddFields(ctx,
		zap.String("project_id", projectID),
		zap.String("action", "SubmitClarification"),
	)

	var req entity.ClarifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.usecase.SubmitClarification(ctx, middleware.UserID(ctx), projectID, req.Answer)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// ExportResearch handles GET /research/{project_id}/export
func (h *Handler) ExportResearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "project_id")
	format := entity.ExportFormat(r.URL.Query().Get("format"))

	ctx = logger.AddFields(ctx,
		zap.String("project_id", projectID),
		zap.String("format", string(format)),
		zap.String("action", "ExportResearch"),
	)

	content, contentType, filename, err := h.usecase.ExportResearch(ctx, middleware.UserID(ctx), projectID, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// ListProjects handles GET /projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListProjects")

	projects, err := h.usecase.ListProjects(ctx, middleware.UserID(ctx))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "projects listed successfully", zap.Int("count", len(projects)))

	h.respondJSON(w, http.StatusOK, &entity.ListProjectsResponse{
		Projects: projects,
	})
}

// Helper methods
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
	if errors.Is(err, entity.ErrResearchDocNotFound) || errors.Is(err, entity.ErrProjectContextNotFound) ||
		errors.Is(err, entity.ErrProjectNotFound) || errors.Is(err, entity.ErrPersonaNotFound) ||
		errors.Is(err, entity.ErrDraftNotFound) {
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	} else if errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrMissingField) ||
		errors.Is(err, entity.ErrTextRequired) || errors.Is(err, entity.ErrAnswerTooShort) ||
		errors.Is(err, entity.ErrNoPersonaAvailable) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	} else if errors.Is(err, entity.ErrCoreIncomplete) || errors.Is(err, entity.ErrSolutionNotValidated) ||
		errors.Is(err, entity.ErrInvalidTransition) {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	} else if errors.Is(err, entity.ErrVersionConflict) {
		h.respondError(ctx, w, http.StatusConflict, "document was modified concurrently, retry", err)
	} else {
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
