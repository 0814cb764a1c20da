package chat

import (
	"context"

	"github.com/avara-hq/avara-backend/internal/entity"
)

type ChatUsecase interface {
	Chat(ctx context.Context, userID, projectID string, service entity.ChatService, req *entity.ChatRequest) (*entity.ChatResponse, error)
}
