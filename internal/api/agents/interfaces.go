package agents

import (
	"context"

	"github.com/avara-hq/avara-backend/internal/entity"
)

type AgentsUsecase interface {
	GenerateCoreBusiness(ctx context.Context, userID string, req *entity.GenerateRequest) (*entity.CoreBusinessResponse, error)
	GetCoreBusiness(ctx context.Context, userID, projectID string) (*entity.CoreBusinessResponse, error)
	GenerateRisks(ctx context.Context, userID string, req *entity.GenerateRequest) (*entity.RisksResponse, error)
	AnalyseRisk(ctx context.Context, userID string, req *entity.AnalyseRiskRequest) (*entity.AnalyseRiskResponse, error)
	GetRisks(ctx context.Context, userID, projectID string) (*entity.RisksResponse, error)
	GenerateRoadmap(ctx context.Context, userID string, req *entity.GenerateRequest) (*entity.RoadmapResponse, error)
	GetRoadmap(ctx context.Context, userID, projectID string) (*entity.RoadmapResponse, error)
	GenerateTasks(ctx context.Context, userID string, req *entity.GenerateRequest) (*entity.TasksResponse, error)
	GetTasks(ctx context.Context, userID, projectID string) (*entity.TasksResponse, error)
}
