package research

import (
	"context"

	"github.com/avara-hq/avara-backend/internal/entity"
)

type SynthConnector interface {
	Synthesize(ctx context.Context, req *entity.SynthesizeRequest) (entity.RawDocument, error)
}

type InsightsConnector interface {
	EnrichIntake(ctx context.Context, intake entity.Intake) (*entity.IntakeInsights, error)
	AssessReliability(ctx context.Context, req *entity.ReliabilityRequest) (*entity.Reliability, error)
}

type AgentsConnector interface {
	TriggerCoreBusiness(ctx context.Context, userID, projectID string)
	TriggerRisk(ctx context.Context, userID, projectID string, scope entity.RiskScope)
	TriggerRoadmap(ctx context.Context, userID, projectID string)
	TriggerTask(ctx context.Context, userID, projectID string)
}
