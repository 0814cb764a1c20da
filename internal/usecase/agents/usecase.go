package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/avara-hq/avara-backend/internal/pkg/validator"
	"github.com/avara-hq/avara-backend/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// AgentsUsecase implements the four downstream agents. Each one reads
// the shared research doc, synthesizes its own document and replaces it
// wholesale; reads go through a short-lived cache.
type AgentsUsecase struct {
	researchRepo     repository.ResearchRepository
	coreBusinessRepo repository.CoreBusinessRepository
	riskRepo         repository.RiskRepository
	roadmapRepo      repository.RoadmapRepository
	taskRepo         repository.TaskRepository
	validator        *validator.Validator
	synth            SynthConnector
	cache            *gocache.Cache
	logger           *zap.Logger
}

// NewUsecase creates a new downstream agents use case
func NewUsecase(
	researchRepo repository.ResearchRepository,
	coreBusinessRepo repository.CoreBusinessRepository,
	riskRepo repository.RiskRepository,
	roadmapRepo repository.RoadmapRepository,
	taskRepo repository.TaskRepository,
	validator *validator.Validator,
	synth SynthConnector,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *AgentsUsecase {
	return &AgentsUsecase{
		researchRepo:     researchRepo,
		coreBusinessRepo: coreBusinessRepo,
		riskRepo:         riskRepo,
		roadmapRepo:      roadmapRepo,
		taskRepo:         taskRepo,
		validator:        validator,
		synth:            synth,
		cache:            gocache.New(cacheTTL, 2*cacheTTL),
		logger:           logger,
	}
}

// GenerateCoreBusiness regenerates the core business identity document.
func (uc *AgentsUsecase) GenerateCoreBusiness(
	ctx context.Context,
	userID string,
	req *entity.GenerateRequest,
) (*entity.CoreBusinessResponse, error) {
	if err := uc.validator.ValidateGenerate(req); err != nil {
		return nil, err
	}

	research, err := uc.researchRepo.Get(ctx, userID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	raw, err := uc.synth.SynthesizeAgentDoc(ctx, &entity.AgentSynthesisRequest{
		Kind:        entity.AgentKindCoreBusiness,
		ResearchDoc: research,
	})
	if err != nil {
		return nil, fmt.Errorf("core business synthesis: %w", err)
	}

	var result entity.CoreBusinessResult
	decodeRaw(raw, &result)

	doc := &entity.CoreBusinessDoc{
		UserID:         userID,
		ProjectID:      req.ProjectID,
		Purpose:        result.Purpose,
		Mission:        result.Mission,
		Vision:         result.Vision,
		StrategicFocus: result.StrategicFocus,
		BrandValues:    orEmpty(result.BrandValues),
		Tagline:        result.Tagline,
	}

	saved, err := uc.coreBusinessRepo.Save(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("save core business doc: %w", err)
	}

	uc.cache.Delete(cacheKey("core_business", userID, req.ProjectID))

	ctxzap.Info(ctx, "core business document generated", zap.String("project_id", req.ProjectID))

	return &entity.CoreBusinessResponse{OK: true, Core: saved}, nil
}

// GetCoreBusiness returns the stored document, or an explicit empty
// shape when the agent has never run.
func (uc *AgentsUsecase) GetCoreBusiness(ctx context.Context, userID, projectID string) (*entity.CoreBusinessResponse, error) {
	key := cacheKey("core_business", userID, projectID)
	if cached, ok := uc.cache.Get(key); ok {
		return cached.(*entity.CoreBusinessResponse), nil
	}

	doc, err := uc.coreBusinessRepo.Get(ctx, userID, projectID)
	if err != nil {
		if errors.Is(err, entity.ErrAgentDocNotFound) {
			doc = &entity.CoreBusinessDoc{
				UserID:      userID,
				ProjectID:   projectID,
				BrandValues: []string{},
			}
		} else {
			return nil, err
		}
	}

	resp := &entity.CoreBusinessResponse{OK: true, Core: doc}
	uc.cache.SetDefault(key, resp)

	return resp, nil
}

// GenerateRoadmap regenerates the roadmap document.
func (uc *AgentsUsecase) GenerateRoadmap(
	ctx context.Context,
	userID string,
	req *entity.GenerateRequest,
) (*entity.RoadmapResponse, error) {
	if err := uc.validator.ValidateGenerate(req); err != nil {
		return nil, err
	}

	research, err := uc.researchRepo.Get(ctx, userID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	raw, err := uc.synth.SynthesizeAgentDoc(ctx, &entity.AgentSynthesisRequest{
		Kind:        entity.AgentKindRoadmap,
		ResearchDoc: research,
	})
	if err != nil {
		return nil, fmt.Errorf("roadmap synthesis: %w", err)
	}

	var result entity.RoadmapResult
	decodeRaw(raw, &result)

	doc := &entity.RoadmapDoc{
		UserID:          userID,
		ProjectID:       req.ProjectID,
		HorizonMonths:   result.HorizonMonths,
		OverarchingGoal: result.OverarchingGoal,
		Summary:         result.Summary,
		Phases:          orEmpty(result.Phases),
	}

	saved, err := uc.roadmapRepo.Save(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("save roadmap doc: %w", err)
	}

	uc.cache.Delete(cacheKey("roadmap", userID, req.ProjectID))

	ctxzap.Info(ctx, "roadmap document generated",
		zap.String("project_id", req.ProjectID),
		zap.Int("phase_count", len(saved.Phases)),
	)

	return &entity.RoadmapResponse{OK: true, Roadmap: saved}, nil
}

// GetRoadmap returns the stored roadmap or an explicit empty shape.
func (uc *AgentsUsecase) GetRoadmap(ctx context.Context, userID, projectID string) (*entity.RoadmapResponse, error) {
	key := cacheKey("roadmap", userID, projectID)
	if cached, ok := uc.cache.Get(key); ok {
		return cached.(*entity.RoadmapResponse), nil
	}

	doc, err := uc.roadmapRepo.Get(ctx, userID, projectID)
	if err != nil {
		if errors.Is(err, entity.ErrAgentDocNotFound) {
			doc = &entity.RoadmapDoc{
				UserID:    userID,
				ProjectID: projectID,
				Phases:    []entity.RoadmapPhase{},
			}
		} else {
			return nil, err
		}
	}

	resp := &entity.RoadmapResponse{OK: true, Roadmap: doc}
	uc.cache.SetDefault(key, resp)

	return resp, nil
}

// GenerateTasks regenerates the task document.
func (uc *AgentsUsecase) GenerateTasks(
	ctx context.Context,
	userID string,
	req *entity.GenerateRequest,
) (*entity.TasksResponse, error) {
	if err := uc.validator.ValidateGenerate(req); err != nil {
		return nil, err
	}

	research, err := uc.researchRepo.Get(ctx, userID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	raw, err := uc.synth.SynthesizeAgentDoc(ctx, &entity.AgentSynthesisRequest{
		Kind:        entity.AgentKindTask,
		ResearchDoc: research,
	})
	if err != nil {
		return nil, fmt.Errorf("task synthesis: %w", err)
	}

	var result entity.TaskResult
	decodeRaw(raw, &result)

	doc := &entity.TaskDoc{
		UserID:    userID,
		ProjectID: req.ProjectID,
		Tasks:     orEmpty(result.Tasks),
	}

	saved, err := uc.taskRepo.Save(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("save task doc: %w", err)
	}

	uc.cache.Delete(cacheKey("task", userID, req.ProjectID))

	ctxzap.Info(ctx, "task document generated",
		zap.String("project_id", req.ProjectID),
		zap.Int("task_count", len(saved.Tasks)),
	)

	return &entity.TasksResponse{OK: true, Tasks: saved}, nil
}

// GetTasks returns the stored task list or an explicit empty shape.
func (uc *AgentsUsecase) GetTasks(ctx context.Context, userID, projectID string) (*entity.TasksResponse, error) {
	key := cacheKey("task", userID, projectID)
	if cached, ok := uc.cache.Get(key); ok {
		return cached.(*entity.TasksResponse), nil
	}

	doc, err := uc.taskRepo.Get(ctx, userID, projectID)
	if err != nil {
		if errors.Is(err, entity.ErrAgentDocNotFound) {
			doc = &entity.TaskDoc{
				UserID:    userID,
				ProjectID: projectID,
				Tasks:     []entity.TaskItem{},
			}
		} else {
			return nil, err
		}
	}

	resp := &entity.TasksResponse{OK: true, Tasks: doc}
	uc.cache.SetDefault(key, resp)

	return resp, nil
}

// AnalyseRisk runs the risk agent for a single scope. Only that scope's
// array is replaced; the other scopes keep their previous results.
func (uc *AgentsUsecase) AnalyseRisk(
	ctx context.Context,
	userID string,
	req *entity.AnalyseRiskRequest,
) (*entity.AnalyseRiskResponse, error) {
	if err := uc.validator.ValidateAnalyseRisk(req); err != nil {
		return nil, err
	}

	research, err := uc.researchRepo.Get(ctx, userID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	result, err := uc.synth.SynthesizeRisks(ctx, &entity.RiskSynthesisRequest{
		Scope:       req.Scope,
		ResearchDoc: research,
	})
	if err != nil {
		return nil, fmt.Errorf("risk synthesis %s: %w", req.Scope, err)
	}

	doc, err := uc.riskRepo.Get(ctx, userID, req.ProjectID)
	if err != nil {
		if !errors.Is(err, entity.ErrAgentDocNotFound) {
			return nil, err
		}
		doc = &entity.RiskDoc{
			UserID:       userID,
			ProjectID:    req.ProjectID,
			ProblemRisks: []entity.RiskItem{},
			CoreRisks:    []entity.RiskItem{},
			GTMRisks:     []entity.RiskItem{},
		}
	}

	risks := orEmpty(result.Risks)
	for i := range risks {
		risks[i].Scope = req.Scope
	}

	switch req.Scope {
	case entity.RiskScopeProblem:
		doc.ProblemRisks = risks
	case entity.RiskScopeCore:
		doc.CoreRisks = risks
	default:
		doc.GTMRisks = risks
	}
	doc.Summary = result.Summary

	saved, err := uc.riskRepo.Save(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("save risk doc: %w", err)
	}

	uc.cache.Delete(cacheKey("risk", userID, req.ProjectID))

	ctxzap.Info(ctx, "risk scope analysed",
		zap.String("project_id", req.ProjectID),
		zap.String("scope", string(req.Scope)),
		zap.Int("risk_count", len(risks)),
	)

	return &entity.AnalyseRiskResponse{
		OK:      true,
		Scope:   req.Scope,
		Summary: saved.Summary,
		Risks:   saved.RisksForScope(req.Scope),
	}, nil
}

// GenerateRisks runs a full analysis across every scope in order.
func (uc *AgentsUsecase) GenerateRisks(
	ctx context.Context,
	userID string,
	req *entity.GenerateRequest,
) (*entity.RisksResponse, error) {
	if err := uc.validator.ValidateGenerate(req); err != nil {
		return nil, err
	}

	scopes := []entity.RiskScope{entity.RiskScopeProblem, entity.RiskScopeCore, entity.RiskScopeGTM}
	for _, scope := range scopes {
		if _, err := uc.AnalyseRisk(ctx, userID, &entity.AnalyseRiskRequest{
			ProjectID: req.ProjectID,
			Scope:     scope,
		}); err != nil {
			return nil, err
		}
	}

	return uc.GetRisks(ctx, userID, req.ProjectID)
}

// GetRisks returns all scopes with explicit empty arrays.
func (uc *AgentsUsecase) GetRisks(ctx context.Context, userID, projectID string) (*entity.RisksResponse, error) {
	key := cacheKey("risk", userID, projectID)
	if cached, ok := uc.cache.Get(key); ok {
		return cached.(*entity.RisksResponse), nil
	}

	doc, err := uc.riskRepo.Get(ctx, userID, projectID)
	if err != nil {
		if !errors.Is(err, entity.ErrAgentDocNotFound) {
			return nil, err
		}
		doc = &entity.RiskDoc{}
	}

	resp := &entity.RisksResponse{
		OK:           true,
		Summary:      doc.Summary,
		ProblemRisks: orEmpty(doc.ProblemRisks),
		CoreRisks:    orEmpty(doc.CoreRisks),
		GTMRisks:     orEmpty(doc.GTMRisks),
	}
	uc.cache.SetDefault(key, resp)

	return resp, nil
}

// decodeRaw maps loose synthesis output onto a typed result. Unknown
// and mistyped fields simply drop out, matching the degrade-on-garbage
// policy of the normalizer.
func decodeRaw(raw entity.RawDocument, out any) {
	data, err := json.Marshal(raw)
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, out)
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func cacheKey(kind, userID, projectID string) string {
	return kind + ":" + userID + ":" + projectID
}
