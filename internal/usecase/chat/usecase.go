package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/avara-hq/avara-backend/internal/pkg/docmerge"
	"github.com/avara-hq/avara-backend/internal/pkg/validator"
	"github.com/avara-hq/avara-backend/internal/repository"
	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// patchAuthor marks document fields last touched through chat, as
// opposed to direct founder edits.
const patchAuthor = "avara"

// ChatUsecase runs one chat turn against the selected service and folds
// the returned patch back into the owning document.
type ChatUsecase struct {
	researchRepo repository.ResearchRepository
	contextRepo  repository.ContextRepository
	validator    *validator.Validator
	synth        SynthConnector
	logger       *zap.Logger
}

// NewUsecase creates a new chat use case
func NewUsecase(
	researchRepo repository.ResearchRepository,
	contextRepo repository.ContextRepository,
	validator *validator.Validator,
	synth SynthConnector,
	logger *zap.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		researchRepo: researchRepo,
		contextRepo:  contextRepo,
		validator:    validator,
		synth:        synth,
		logger:       logger,
	}
}

// Chat dispatches one turn to the service named in the route.
func (uc *ChatUsecase) Chat(
	ctx context.Context,
	userID, projectID string,
	service entity.ChatService,
	req *entity.ChatRequest,
) (*entity.ChatResponse, error) {
	if err := uc.validator.ValidateChat(service, req); err != nil {
		return nil, err
	}

	switch service {
	case entity.ChatServiceIntake:
		return uc.chatIntake(ctx, userID, projectID, req.Message)
	default:
		return uc.chatResearch(ctx, userID, projectID, req.Message)
	}
}

// chatResearch runs a turn against the research document. The patch is
// applied under version CAS; a concurrent edit re-reads and re-applies.
func (uc *ChatUsecase) chatResearch(ctx context.Context, userID, projectID, message string) (*entity.ChatResponse, error) {
	doc, err := uc.researchRepo.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	result, err := uc.synth.ChatResearch(ctx, &entity.ChatSynthesisRequest{
		Service:     entity.ChatServiceResearch,
		Message:     message,
		ResearchDoc: doc,
	})
	if err != nil {
		return nil, fmt.Errorf("research chat: %w", err)
	}

	var saved *entity.ResearchDoc
	err = retry.Do(func() error {
		if err := docmerge.ApplyResearchPatch(doc, result.Patch, patchAuthor); err != nil {
			return retry.Unrecoverable(err)
		}

		saved, err = uc.researchRepo.Update(ctx, doc)
		if err == nil {
			return nil
		}
		if errors.Is(err, entity.ErrVersionConflict) {
			doc, err = uc.researchRepo.Get(ctx, userID, projectID)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			return entity.ErrVersionConflict
		}
		return retry.Unrecoverable(err)
	},
		retry.Attempts(3),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("apply research chat patch: %w", err)
	}

	ctxzap.Info(ctx, "research chat turn applied",
		zap.String("project_id", projectID),
		zap.Int64("version", saved.Version),
	)

	return &entity.ChatResponse{
		Service: entity.ChatServiceResearch,
		Reply:   result.Reply,
		Patch:   result.Patch,
		Doc:     saved,
	}, nil
}

// chatIntake patches the project context. A missing context is a hard
// error here: intake chat refines an existing draft rather than
// creating one.
func (uc *ChatUsecase) chatIntake(ctx context.Context, userID, projectID, message string) (*entity.ChatResponse, error) {
	pc, err := uc.contextRepo.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	result, err := uc.synth.ChatIntake(ctx, &entity.ChatSynthesisRequest{
		Service: entity.ChatServiceIntake,
		Message: message,
		Context: pc,
	})
	if err != nil {
		return nil, fmt.Errorf("intake chat: %w", err)
	}

	if err := docmerge.ApplyIntakePatch(pc, result.Patch); err != nil {
		return nil, fmt.Errorf("apply intake chat patch: %w", err)
	}

	saved, err := uc.contextRepo.Save(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("save project context: %w", err)
	}

	ctxzap.Info(ctx, "intake chat turn applied", zap.String("project_id", projectID))

	return &entity.ChatResponse{
		Service: entity.ChatServiceIntake,
		Reply:   result.Reply,
		Patch:   result.Patch,
		Context: saved,
	}, nil
}
