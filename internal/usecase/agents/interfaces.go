package agents

import (
	"context"

	"github.com/avara-hq/avara-backend/internal/entity"
)

type SynthConnector interface {
	SynthesizeAgentDoc(ctx context.Context, req *entity.AgentSynthesisRequest) (entity.RawDocument, error)
	SynthesizeRisks(ctx context.Context, req *entity.RiskSynthesisRequest) (*entity.RiskSynthesisResult, error)
}
