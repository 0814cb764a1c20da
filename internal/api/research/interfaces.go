package research

import (
	"context"

	"github.com/avara-hq/avara-backend/internal/entity"
)

type ResearchUsecase interface {
	StartResearch(ctx context.Context, userID string, req *entity.StartResearchRequest) (*entity.StartResearchResponse, error)
	GetResearch(ctx context.Context, userID, projectID string) (*entity.ResearchResponse, error)
	SaveDraft(ctx context.Context, userID string, req *entity.SaveDraftRequest) (*entity.SaveDraftResponse, error)
	GetDraft(ctx context.Context, userID, projectID string) (*entity.DraftResponse, error)
	UpdateCore(ctx context.Context, userID string, req *entity.UpdateCoreRequest) (*entity.UpdateCoreResponse, error)
	LockCore(ctx context.Context, userID, projectID string) (*entity.UpdateCoreResponse, error)
	AdvanceGates(ctx context.Context, userID, projectID string, req *entity.AdvanceGatesRequest) (*entity.ResearchResponse, error)
	SubmitClarification(ctx context.Context, userID, projectID, answer string) (*entity.ResearchResponse, error)
	ExportResearch(ctx context.Context, userID, projectID string, format entity.ExportFormat) ([]byte, string, string, error)
	ListProjects(ctx context.Context, userID string) ([]*entity.Project, error)
}
