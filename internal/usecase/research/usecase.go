package research

import (
	"context"
	"errors"
	"fmt"

	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/avara-hq/avara-backend/internal/pkg/decision"
	"github.com/avara-hq/avara-backend/internal/pkg/lifecycle"
	"github.com/avara-hq/avara-backend/internal/pkg/normalize"
	"github.com/avara-hq/avara-backend/internal/pkg/validator"
	"github.com/avara-hq/avara-backend/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ResearchUsecase orchestrates the research lifecycle: intake, core
// triad, gates and the handoff to downstream agents.
type ResearchUsecase struct {
	researchRepo     repository.ResearchRepository
	contextRepo      repository.ContextRepository
	projectRepo      repository.ProjectRepository
	validator        *validator.Validator
	synth            SynthConnector
	insights         InsightsConnector
	agents           AgentsConnector
	defaultQuestions []string
	logger           *zap.Logger
}

// NewUsecase creates a new research use case
func NewUsecase(
	researchRepo repository.ResearchRepository,
	contextRepo repository.ContextRepository,
	projectRepo repository.ProjectRepository,
	validator *validator.Validator,
	synth SynthConnector,
	insights InsightsConnector,
	agents AgentsConnector,
	defaultQuestions []string,
	logger *zap.Logger,
) *ResearchUsecase {
	return &ResearchUsecase{
		researchRepo:     researchRepo,
		contextRepo:      contextRepo,
		projectRepo:      projectRepo,
		validator:        validator,
		synth:            synth,
		insights:         insights,
		agents:           agents,
		defaultQuestions: defaultQuestions,
		logger:           logger,
	}
}

// StartResearch finalizes the intake, runs the core synthesis pass and
// materializes the research doc, project context and project card.
func (uc *ResearchUsecase) StartResearch(
	ctx context.Context,
	userID string,
	req *entity.StartResearchRequest,
) (*entity.StartResearchResponse, error) {
	if err := uc.validator.ValidateStartResearch(req); err != nil {
		return nil, err
	}

	intake := req.Intake

	prevState := entity.ProjectState("")
	if existing, err := uc.contextRepo.Get(ctx, userID, req.ProjectID); err == nil {
		prevState = existing.State
	} else if !errors.Is(err, entity.ErrProjectContextNotFound) {
		return nil, fmt.Errorf("load project context: %w", err)
	}

	nextState, err := lifecycle.Next(prevState, lifecycle.EventStartResearch, lifecycle.Conditions{})
	if err != nil {
		return nil, err
	}

	gate := decision.Decide(intake)
	quality := uc.assessIntakeQuality(intake)

	insights := uc.enrichIntake(ctx, intake)

	raw, err := uc.synth.Synthesize(ctx, &entity.SynthesizeRequest{
		Mode:   entity.SynthesisCore,
		Intake: intake,
		SPA:    insightsSPA(insights),
		Region: intake.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("core synthesis: %w", err)
	}

	doc := normalize.ResearchDoc(raw, req.ProjectID)
	doc.UserID = userID
	doc.PathType = intake.PathType
	doc.State = nextState
	doc.Intake = intake

	applyInsights(doc, insights)
	uc.applyIntakeQuality(doc, quality)
	doc.Core = buildCoreTriad(intake, doc)
	ensurePersonaFallback(doc)
	syncSummary(doc)

	uc.assessReliability(ctx, doc)

	savedDoc, err := uc.researchRepo.Save(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("save research doc: %w", err)
	}

	pc := &entity.ProjectContext{
		UserID:    userID,
		ProjectID: req.ProjectID,
		Intake:    intake,
		State:     nextState,
		Gates: entity.Gates{
			ProblemValidationNeeded:  gate.NeedProblem,
			SolutionValidationNeeded: gate.NeedSolution,
		},
		Meta: entity.ContextMeta{
			ReadyForResearch:    !quality.IsWeak,
			NeedMoreInput:       quality.IsWeak,
			ClarifyingQuestions: doc.Meta.ClarifyingQuestions,
		},
	}

	savedCtx, err := uc.contextRepo.Save(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("save project context: %w", err)
	}

	uc.syncProjectCard(ctx, savedDoc)

	ctxzap.Info(ctx, "research started",
		zap.String("project_id", req.ProjectID),
		zap.Bool("need_problem", gate.NeedProblem),
		zap.Bool("need_solution", gate.NeedSolution),
		zap.Bool("weak_intake", quality.IsWeak),
	)

	return &entity.StartResearchResponse{
		Gate:    gate,
		Doc:     savedDoc,
		Context: savedCtx,
	}, nil
}

// GetResearch returns the research doc and project context.
func (uc *ResearchUsecase) GetResearch(ctx context.Context, userID, projectID string) (*entity.ResearchResponse, error) {
	doc, err := uc.researchRepo.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	pc, err := uc.contextRepo.Get(ctx, userID, projectID)
	if err != nil {
		if !errors.Is(err, entity.ErrProjectContextNotFound) {
			return nil, err
		}
		pc = nil
	}

	return &entity.ResearchResponse{Doc: doc, Context: pc}, nil
}

// SaveDraft autosaves partial wizard answers on the project context.
func (uc *ResearchUsecase) SaveDraft(ctx context.Context, userID string, req *entity.SaveDraftRequest) (*entity.SaveDraftResponse, error) {
	if err := uc.validator.ValidateSaveDraft(req); err != nil {
		return nil, err
	}

	pc, err := uc.contextRepo.Get(ctx, userID, req.ProjectID)
	if err != nil {
		if !errors.Is(err, entity.ErrProjectContextNotFound) {
			return nil, err
		}
		pc = &entity.ProjectContext{
			UserID:    userID,
			ProjectID: req.ProjectID,
			State:     entity.StateDraft,
		}
	}

	pc.Draft = &entity.Draft{
		Step:    req.Step,
		Answers: req.Answers,
	}

	saved, err := uc.contextRepo.Save(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	uc.syncProjectCardFromDraft(ctx, saved)

	ctxzap.Info(ctx, "draft saved",
		zap.String("project_id", req.ProjectID),
		zap.Int("step", req.Step),
	)

	return &entity.SaveDraftResponse{OK: true, Draft: saved.Draft}, nil
}

// GetDraft returns the saved wizard draft. Absence is a normal state:
// callers translate entity.ErrDraftNotFound into 204.
func (uc *ResearchUsecase) GetDraft(ctx context.Context, userID, projectID string) (*entity.DraftResponse, error) {
	pc, err := uc.contextRepo.Get(ctx, userID, projectID)
	if err != nil {
		if errors.Is(err, entity.ErrProjectContextNotFound) {
			return nil, entity.ErrDraftNotFound
		}
		return nil, err
	}

	if pc.Draft == nil {
		return nil, entity.ErrDraftNotFound
	}

	return &entity.DraftResponse{
		Step:    pc.Draft.Step,
		Answers: pc.Draft.Answers,
	}, nil
}

// ListProjects returns the founder's denormalized project cards.
func (uc *ResearchUsecase) ListProjects(ctx context.Context, userID string) ([]*entity.Project, error) {
	projects, err := uc.projectRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return projects, nil
}
