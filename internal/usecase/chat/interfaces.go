package chat

import (
	"context"

	"github.com/avara-hq/avara-backend/internal/entity"
)

// SynthConnector is the chat slice of the synthesis provider.
type SynthConnector interface {
	ChatResearch(ctx context.Context, req *entity.ChatSynthesisRequest) (*entity.ResearchChatResult, error)
	ChatIntake(ctx context.Context, req *entity.ChatSynthesisRequest) (*entity.IntakeChatResult, error)
}
