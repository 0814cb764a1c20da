package agents

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/avara-hq/avara-backend/internal/integration/synthesis"
	"github.com/avara-hq/avara-backend/internal/pkg/validator"
	"go.uber.org/zap"
)

// ---- in-memory fakes ----

type memResearchRepo struct {
	docs map[string]*entity.ResearchDoc
}

func (r *memResearchRepo) Save(ctx context.Context, doc *entity.ResearchDoc) (*entity.ResearchDoc, error) {
	r.docs[doc.UserID+"/"+doc.ProjectID] = doc
	return doc, nil
}

func (r *memResearchRepo) Get(ctx context.Context, userID, projectID string) (*entity.ResearchDoc, error) {
	doc, ok := r.docs[userID+"/"+projectID]
	if !ok {
		return nil, entity.ErrResearchDocNotFound
	}
	return doc, nil
}

func (r *memResearchRepo) Update(ctx context.Context, doc *entity.ResearchDoc) (*entity.ResearchDoc, error) {
	return r.Save(ctx, doc)
}

type memDocStore[T any] struct {
	mu    sync.Mutex
	docs  map[string]*T
	saves int
}

func (s *memDocStore[T]) save(userID, projectID string, doc *T) *T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[userID+"/"+projectID] = doc
	s.saves++
	return doc
}

func (s *memDocStore[T]) get(userID, projectID string) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[userID+"/"+projectID]
	if !ok {
		return nil, entity.ErrAgentDocNotFound
	}
	return doc, nil
}

type memCoreBusinessRepo struct{ memDocStore[entity.CoreBusinessDoc] }

func (r *memCoreBusinessRepo) Save(ctx context.Context, doc *entity.CoreBusinessDoc) (*entity.CoreBusinessDoc, error) {
	return r.save(doc.UserID, doc.ProjectID, doc), nil
}

func (r *memCoreBusinessRepo) Get(ctx context.Context, userID, projectID string) (*entity.CoreBusinessDoc, error) {
	return r.get(userID, projectID)
}

type memRiskRepo struct{ memDocStore[entity.RiskDoc] }

func (r *memRiskRepo) Save(ctx context.Context, doc *entity.RiskDoc) (*entity.RiskDoc, error) {
	return r.save(doc.UserID, doc.ProjectID, doc), nil
}

func (r *memRiskRepo) Get(ctx context.Context, userID, projectID string) (*entity.RiskDoc, error) {
	return r.get(userID, projectID)
}

type memRoadmapRepo struct{ memDocStore[entity.RoadmapDoc] }

func (r *memRoadmapRepo) Save(ctx context.Context, doc *entity.RoadmapDoc) (*entity.RoadmapDoc, error) {
	return r.save(doc.UserID, doc.ProjectID, doc), nil
}

func (r *memRoadmapRepo) Get(ctx context.Context, userID, projectID string) (*entity.RoadmapDoc, error) {
	return r.get(userID, projectID)
}

type memTaskRepo struct{ memDocStore[entity.TaskDoc] }

func (r *memTaskRepo) Save(ctx context.Context, doc *entity.TaskDoc) (*entity.TaskDoc, error) {
	return r.save(doc.UserID, doc.ProjectID, doc), nil
}

func (r *memTaskRepo) Get(ctx context.Context, userID, projectID string) (*entity.TaskDoc, error) {
	return r.get(userID, projectID)
}

func newTestUsecase(t *testing.T) (*AgentsUsecase, *memResearchRepo) {
	t.Helper()

	research := &memResearchRepo{docs: map[string]*entity.ResearchDoc{}}
	uc := NewUsecase(
		research,
		&memCoreBusinessRepo{memDocStore[entity.CoreBusinessDoc]{docs: map[string]*entity.CoreBusinessDoc{}}},
		&memRiskRepo{memDocStore[entity.RiskDoc]{docs: map[string]*entity.RiskDoc{}}},
		&memRoadmapRepo{memDocStore[entity.RoadmapDoc]{docs: map[string]*entity.RoadmapDoc{}}},
		&memTaskRepo{memDocStore[entity.TaskDoc]{docs: map[string]*entity.TaskDoc{}}},
		validator.New(),
		synthesis.NewMockConnector(zap.NewNop()),
		30*time.Second,
		zap.NewNop(),
	)
	return uc, research
}

func seedResearchDoc(r *memResearchRepo, userID, projectID string) {
	r.docs[userID+"/"+projectID] = &entity.ResearchDoc{
		UserID:    userID,
		ProjectID: projectID,
		State:     entity.StateResearchReady,
	}
}

// ---- tests ----

func TestGenerateRequiresResearchDoc(t *testing.T) {
	uc, _ := newTestUsecase(t)

	_, err := uc.GenerateCoreBusiness(context.Background(), "u1", &entity.GenerateRequest{ProjectID: "p1"})
	if !errors.Is(err, entity.ErrResearchDocNotFound) {
		t.Fatalf("err = %v, want ErrResearchDocNotFound", err)
	}
}

func TestGenerateAndGetCoreBusiness(t *testing.T) {
	uc, research := newTestUsecase(t)
	ctx := context.Background()
	seedResearchDoc(research, "u1", "p1")

	gen, err := uc.GenerateCoreBusiness(ctx, "u1", &entity.GenerateRequest{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("GenerateCoreBusiness: %v", err)
	}
	if gen.Core.Purpose == "" || gen.Core.Tagline == "" {
		t.Errorf("generated doc missing identity fields: %+v", gen.Core)
	}
	if len(gen.Core.BrandValues) == 0 {
		t.Error("brand values should be populated")
	}

	got, err := uc.GetCoreBusiness(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("GetCoreBusiness: %v", err)
	}
	if got.Core.Purpose != gen.Core.Purpose {
		t.Errorf("Get returned %q, want %q", got.Core.Purpose, gen.Core.Purpose)
	}
}

func TestGetNeverGeneratedReturnsEmptyShape(t *testing.T) {
	uc, _ := newTestUsecase(t)
	ctx := context.Background()

	core, err := uc.GetCoreBusiness(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("GetCoreBusiness: %v", err)
	}
	if !core.OK || core.Core == nil {
		t.Fatal("never-generated core business must still return a shape")
	}
	if core.Core.BrandValues == nil {
		t.Error("brand values must be an explicit empty slice")
	}

	risks, err := uc.GetRisks(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("GetRisks: %v", err)
	}
	if risks.ProblemRisks == nil || risks.CoreRisks == nil || risks.GTMRisks == nil {
		t.Error("risk arrays must be explicit empty slices, not null")
	}

	tasks, err := uc.GetTasks(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if tasks.Tasks.Tasks == nil {
		t.Error("task list must be an explicit empty slice")
	}
}

func TestAnalyseRiskReplacesOnlyItsScope(t *testing.T) {
	uc, research := newTestUsecase(t)
	ctx := context.Background()
	seedResearchDoc(research, "u1", "p1")

	first, err := uc.AnalyseRisk(ctx, "u1", &entity.AnalyseRiskRequest{
		ProjectID: "p1",
		Scope:     entity.RiskScopeProblem,
	})
	if err != nil {
		t.Fatalf("analyse problem scope: %v", err)
	}
	if first.Scope != entity.RiskScopeProblem || len(first.Risks) == 0 {
		t.Fatalf("unexpected analyse response: %+v", first)
	}

	if _, err := uc.AnalyseRisk(ctx, "u1", &entity.AnalyseRiskRequest{
		ProjectID: "p1",
		Scope:     entity.RiskScopeGTM,
	}); err != nil {
		t.Fatalf("analyse gtm scope: %v", err)
	}

	all, err := uc.GetRisks(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("GetRisks: %v", err)
	}
	if len(all.ProblemRisks) == 0 {
		t.Error("gtm analysis must not wipe problem scope risks")
	}
	if len(all.GTMRisks) == 0 {
		t.Error("gtm scope should be populated")
	}
	if len(all.CoreRisks) != 0 {
		t.Error("core scope was never analysed and should stay empty")
	}
	for _, risk := range all.GTMRisks {
		if risk.Scope != entity.RiskScopeGTM {
			t.Errorf("risk %s carries scope %q, want gtm", risk.ID, risk.Scope)
		}
	}
}

func TestAnalyseRiskRejectsUnknownScope(t *testing.T) {
	uc, research := newTestUsecase(t)
	seedResearchDoc(research, "u1", "p1")

	_, err := uc.AnalyseRisk(context.Background(), "u1", &entity.AnalyseRiskRequest{
		ProjectID: "p1",
		Scope:     "market",
	})
	if !errors.Is(err, entity.ErrInvalidParameter) {
		t.Fatalf("err = %v, want ErrInvalidParameter", err)
	}
}

func TestGenerateRoadmapDecodesPhases(t *testing.T) {
	uc, research := newTestUsecase(t)
	ctx := context.Background()
	seedResearchDoc(research, "u1", "p1")

	resp, err := uc.GenerateRoadmap(ctx, "u1", &entity.GenerateRequest{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("GenerateRoadmap: %v", err)
	}
	if resp.Roadmap.HorizonMonths == 0 {
		t.Error("horizon should decode from synthesis output")
	}
	if len(resp.Roadmap.Phases) != 2 {
		t.Fatalf("phase count = %d, want 2", len(resp.Roadmap.Phases))
	}
	if resp.Roadmap.Phases[0].Order != 1 || len(resp.Roadmap.Phases[0].Milestones) == 0 {
		t.Errorf("first phase not decoded: %+v", resp.Roadmap.Phases[0])
	}
}

func TestGenerateInvalidatesReadCache(t *testing.T) {
	uc, research := newTestUsecase(t)
	ctx := context.Background()
	seedResearchDoc(research, "u1", "p1")

	if _, err := uc.GenerateTasks(ctx, "u1", &entity.GenerateRequest{ProjectID: "p1"}); err != nil {
		t.Fatalf("GenerateTasks: %v", err)
	}

	before, err := uc.GetTasks(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(before.Tasks.Tasks) == 0 {
		t.Fatal("generated tasks should be visible")
	}

	// Regenerating must evict the cached read so the next Get reflects
	// the fresh document rather than the cached response.
	if _, err := uc.GenerateTasks(ctx, "u1", &entity.GenerateRequest{ProjectID: "p1"}); err != nil {
		t.Fatalf("regenerate tasks: %v", err)
	}
	if _, found := uc.cache.Get("task:u1:p1"); found {
		t.Error("generate must invalidate the cached task response")
	}
}
