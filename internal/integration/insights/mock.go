package insights

import (
	"context"

	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector returns fixed enrichment data for local development.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) EnrichIntake(ctx context.Context, intake entity.Intake) (*entity.IntakeInsights, error) {
	ctxzap.Info(ctx, "[MOCK] enriching intake")

	return &entity.IntakeInsights{
		SPA: &entity.SPA{
			SizeScore:          0.6,
			PainScore:          0.7,
			AccessibilityScore: 0.5,
			Commentary:         "Reachable niche with real pain, moderate market size.",
		},
		Personas: []entity.Persona{
			{
				ID:          "persona_1",
				Type:        entity.PersonaPrimary,
				Title:       "First-time founder",
				Description: "Needs structure more than inspiration",
			},
		},
		ClarifyingQuestions: []string{
			"What do these founders do today when an idea stalls?",
		},
	}, nil
}

func (m *MockConnector) AssessReliability(ctx context.Context, req *entity.ReliabilityRequest) (*entity.Reliability, error) {
	ctxzap.Info(ctx, "[MOCK] assessing pack reliability")

	return &entity.Reliability{
		ReliabilityScore:  0.72,
		Concerns:          []string{"Competitor list is shallow"},
		RecommendedChecks: []string{"Verify competitor pricing manually"},
		VersionTag:        "mock-critic-1",
	}, nil
}
