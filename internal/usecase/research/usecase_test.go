package research

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/avara-hq/avara-backend/internal/integration/insights"
	"github.com/avara-hq/avara-backend/internal/integration/synthesis"
	"github.com/avara-hq/avara-backend/internal/pkg/validator"
	"go.uber.org/zap"
)

// ---- in-memory fakes ----

type memResearchRepo struct {
	mu   sync.Mutex
	docs map[string]*entity.ResearchDoc
}

func newMemResearchRepo() *memResearchRepo {
	return &memResearchRepo{docs: map[string]*entity.ResearchDoc{}}
}

func docKey(userID, projectID string) string {
	return userID + "/" + projectID
}

func cloneDoc(doc *entity.ResearchDoc) *entity.ResearchDoc {
	data, _ := json.Marshal(doc)
	out := &entity.ResearchDoc{}
	json.Unmarshal(data, out)
	return out
}

func (r *memResearchRepo) Save(ctx context.Context, doc *entity.ResearchDoc) (*entity.ResearchDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneDoc(doc)
	if prev, ok := r.docs[docKey(doc.UserID, doc.ProjectID)]; ok {
		stored.Version = prev.Version + 1
	} else {
		stored.Version = 1
	}
	r.docs[docKey(doc.UserID, doc.ProjectID)] = stored
	return cloneDoc(stored), nil
}

func (r *memResearchRepo) Get(ctx context.Context, userID, projectID string) (*entity.ResearchDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[docKey(userID, projectID)]
	if !ok {
		return nil, entity.ErrResearchDocNotFound
	}
	return cloneDoc(doc), nil
}

func (r *memResearchRepo) Update(ctx context.Context, doc *entity.ResearchDoc) (*entity.ResearchDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.docs[docKey(doc.UserID, doc.ProjectID)]
	if !ok {
		return nil, entity.ErrResearchDocNotFound
	}
	if prev.Version != doc.Version {
		return nil, entity.ErrVersionConflict
	}
	stored := cloneDoc(doc)
	stored.Version = prev.Version + 1
	r.docs[docKey(doc.UserID, doc.ProjectID)] = stored
	return cloneDoc(stored), nil
}

type memContextRepo struct {
	mu       sync.Mutex
	contexts map[string]*entity.ProjectContext
}

func newMemContextRepo() *memContextRepo {
	return &memContextRepo{contexts: map[string]*entity.ProjectContext{}}
}

func (r *memContextRepo) Save(ctx context.Context, pc *entity.ProjectContext) (*entity.ProjectContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, _ := json.Marshal(pc)
	stored := &entity.ProjectContext{}
	json.Unmarshal(data, stored)
	r.contexts[docKey(pc.UserID, pc.ProjectID)] = stored
	return stored, nil
}

func (r *memContextRepo) Get(ctx context.Context, userID, projectID string) (*entity.ProjectContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pc, ok := r.contexts[docKey(userID, projectID)]
	if !ok {
		return nil, entity.ErrProjectContextNotFound
	}
	data, _ := json.Marshal(pc)
	out := &entity.ProjectContext{}
	json.Unmarshal(data, out)
	return out, nil
}

type memProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*entity.Project
}

func newMemProjectRepo() *memProjectRepo {
	return &memProjectRepo{projects: map[string]*entity.Project{}}
}

func (r *memProjectRepo) Upsert(ctx context.Context, p *entity.Project) (*entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[docKey(p.UserID, p.ProjectID)] = p
	return p, nil
}

func (r *memProjectRepo) Get(ctx context.Context, userID, projectID string) (*entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[docKey(userID, projectID)]
	if !ok {
		return nil, entity.ErrProjectNotFound
	}
	return p, nil
}

func (r *memProjectRepo) List(ctx context.Context, userID string) ([]*entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Project
	for _, p := range r.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type recordingAgents struct {
	mu       sync.Mutex
	triggers []string
}

func (a *recordingAgents) record(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.triggers = append(a.triggers, name)
}

func (a *recordingAgents) list() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.triggers...)
}

func (a *recordingAgents) TriggerCoreBusiness(ctx context.Context, userID, projectID string) {
	a.record("core_business")
}

func (a *recordingAgents) TriggerRisk(ctx context.Context, userID, projectID string, scope entity.RiskScope) {
	a.record("risk:" + string(scope))
}

func (a *recordingAgents) TriggerRoadmap(ctx context.Context, userID, projectID string) {
	a.record("roadmap")
}

func (a *recordingAgents) TriggerTask(ctx context.Context, userID, projectID string) {
	a.record("task")
}

type testEnv struct {
	uc       *ResearchUsecase
	research *memResearchRepo
	contexts *memContextRepo
	agents   *recordingAgents
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	research := newMemResearchRepo()
	contexts := newMemContextRepo()
	agents := &recordingAgents{}

	uc := NewUsecase(
		research,
		contexts,
		newMemProjectRepo(),
		validator.New(),
		synthesis.NewMockConnector(logger),
		insights.NewMockConnector(logger),
		agents,
		[]string{"What does your target user do today instead?"},
		logger,
	)

	return &testEnv{uc: uc, research: research, contexts: contexts, agents: agents}
}

func problemIntake() entity.Intake {
	return entity.Intake{
		PathType: entity.PathProblem,
		Name:     "Avara",
		Industry: "startup tooling",
		Problem:  "Founders burn months building before validating the underlying problem",
		Region:   "EU",
	}
}

func (e *testEnv) waitForJob(t *testing.T, userID, projectID string, status entity.JobStatus) *entity.ResearchDoc {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		doc, err := e.research.Get(context.Background(), userID, projectID)
		if err != nil {
			t.Fatalf("get doc while waiting: %v", err)
		}
		if doc.Generation != nil && doc.Generation.Status == status {
			return doc
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("generation job never reached status %q", status)
	return nil
}

// ---- tests ----

func TestStartResearchMaterializesDocAndContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.uc.StartResearch(ctx, "u1", &entity.StartResearchRequest{
		ProjectID: "p1",
		Intake:    problemIntake(),
	})
	if err != nil {
		t.Fatalf("StartResearch: %v", err)
	}

	if resp.Context.State != entity.StateResearch {
		t.Errorf("state = %q, want %q", resp.Context.State, entity.StateResearch)
	}
	if !resp.Gate.NeedProblem {
		t.Error("problem path without validation should need problem validation")
	}
	if resp.Gate.NeedSolution {
		t.Error("needSolution must be false when no solution exists")
	}
	if resp.Doc.Core.Problem.Text == "" {
		t.Error("core problem text should be seeded from intake")
	}
	if resp.Doc.Core.PersonaPrimaryID == "" {
		t.Error("a primary persona must always be set")
	}
	if len(resp.Doc.Personas) == 0 {
		t.Error("personas should never be empty after start")
	}
}

func TestStartResearchRejectsShortProblem(t *testing.T) {
	env := newTestEnv(t)

	intake := problemIntake()
	intake.Problem = "too short"
	_, err := env.uc.StartResearch(context.Background(), "u1", &entity.StartResearchRequest{
		ProjectID: "p1",
		Intake:    intake,
	})
	if !errors.Is(err, entity.ErrInvalidParameter) {
		t.Fatalf("err = %v, want ErrInvalidParameter", err)
	}
}

func TestGetDraftAbsenceIsDistinct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.uc.GetDraft(ctx, "u1", "missing")
	if !errors.Is(err, entity.ErrDraftNotFound) {
		t.Fatalf("err = %v, want ErrDraftNotFound", err)
	}

	_, err = env.uc.SaveDraft(ctx, "u1", &entity.SaveDraftRequest{
		ProjectID: "p1",
		Step:      2,
		Answers:   entity.DraftAnswers{Industry: "fintech"},
	})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	draft, err := env.uc.GetDraft(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("GetDraft: %v", err)
	}
	if draft.Step != 2 || draft.Answers.Industry != "fintech" {
		t.Errorf("draft = %+v, want step 2 with industry fintech", draft)
	}
}

func TestLockCoreRequiresCompleteTriad(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.StartResearch(ctx, "u1", &entity.StartResearchRequest{
		ProjectID: "p1",
		Intake:    problemIntake(),
	}); err != nil {
		t.Fatalf("StartResearch: %v", err)
	}

	// Blank out the solution so the triad is incomplete.
	doc, _ := env.research.Get(ctx, "u1", "p1")
	doc.Core.Solution.Text = ""
	if _, err := env.research.Update(ctx, doc); err != nil {
		t.Fatalf("prepare doc: %v", err)
	}

	_, err := env.uc.LockCore(ctx, "u1", "p1")
	if !errors.Is(err, entity.ErrCoreIncomplete) {
		t.Fatalf("err = %v, want ErrCoreIncomplete", err)
	}

	after, _ := env.research.Get(ctx, "u1", "p1")
	if after.Core.Locked {
		t.Error("failed lock must not change the document")
	}
}

func TestGTMApprovalRequiresValidatedSolution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.StartResearch(ctx, "u1", &entity.StartResearchRequest{
		ProjectID: "p1",
		Intake:    problemIntake(),
	}); err != nil {
		t.Fatalf("StartResearch: %v", err)
	}

	approve := true
	_, err := env.uc.AdvanceGates(ctx, "u1", "p1", &entity.AdvanceGatesRequest{
		ApproveProceedToGTM: &approve,
	})
	if !errors.Is(err, entity.ErrSolutionNotValidated) {
		t.Fatalf("err = %v, want ErrSolutionNotValidated", err)
	}

	if triggers := env.agents.list(); len(triggers) != 0 {
		t.Errorf("no agent triggers should fire on a rejected approval, got %v", triggers)
	}
}

func TestValidateProblemSchedulesSolutionRegen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.StartResearch(ctx, "u1", &entity.StartResearchRequest{
		ProjectID: "p1",
		Intake:    problemIntake(),
	}); err != nil {
		t.Fatalf("StartResearch: %v", err)
	}

	resp, err := env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldProblem,
		Text:      "Founders burn months building before validating the underlying problem",
		Validate:  true,
	})
	if err != nil {
		t.Fatalf("UpdateCore: %v", err)
	}

	if resp.Doc.Generation == nil || resp.Doc.Generation.Status != entity.JobPending {
		t.Fatal("validating the problem must schedule a pending regeneration job")
	}
	if resp.Doc.Core.Solution.Text != placeholderSolutionFromProblem {
		t.Errorf("solution = %q, want the generation placeholder", resp.Doc.Core.Solution.Text)
	}
	if resp.Context.Gates.ProblemValidationNeeded {
		t.Error("problem validation gate should clear on validate")
	}

	done := env.waitForJob(t, "u1", "p1", entity.JobDone)
	if done.Core.Solution.Text == placeholderSolutionFromProblem {
		t.Error("finished job must replace the placeholder solution")
	}
	if done.Core.Solution.State != entity.CoreItemDraft {
		t.Errorf("regenerated solution state = %q, want draft", done.Core.Solution.State)
	}
}

func TestFullLifecycleToGTMReady(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.StartResearch(ctx, "u1", &entity.StartResearchRequest{
		ProjectID: "p1",
		Intake:    problemIntake(),
	}); err != nil {
		t.Fatalf("StartResearch: %v", err)
	}

	// Validate the problem and wait out the solution regeneration.
	if _, err := env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldProblem,
		Text:      "Founders burn months building before validating the underlying problem",
		Validate:  true,
	}); err != nil {
		t.Fatalf("validate problem: %v", err)
	}
	env.waitForJob(t, "u1", "p1", entity.JobDone)

	// Validate the regenerated solution.
	if _, err := env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldSolution,
		Text:      "A guided validation workspace that turns intake answers into testable experiments",
		Validate:  true,
	}); err != nil {
		t.Fatalf("validate solution: %v", err)
	}

	// Lock the triad: downstream pass fills experiments and flips state.
	locked, err := env.uc.LockCore(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("LockCore: %v", err)
	}
	if !locked.Doc.Core.Locked {
		t.Error("triad should be locked")
	}
	if locked.Doc.State != entity.StateResearchReady {
		t.Errorf("state = %q, want %q", locked.Doc.State, entity.StateResearchReady)
	}
	if len(locked.Doc.Experiments) == 0 {
		t.Error("lock must guarantee at least one experiment")
	}

	// Approve experiments.
	approve := true
	mid, err := env.uc.AdvanceGates(ctx, "u1", "p1", &entity.AdvanceGatesRequest{
		ApproveExperiments: &approve,
	})
	if err != nil {
		t.Fatalf("approve experiments: %v", err)
	}
	if mid.Context.State != entity.StateValidation {
		t.Errorf("state = %q, want %q", mid.Context.State, entity.StateValidation)
	}
	if !mid.Context.Gates.UserApprovedExperiments {
		t.Error("experiments approval should be recorded")
	}

	// Approve GTM: solution is validated, so the gate opens and fans out.
	final, err := env.uc.AdvanceGates(ctx, "u1", "p1", &entity.AdvanceGatesRequest{
		ApproveProceedToGTM: &approve,
	})
	if err != nil {
		t.Fatalf("approve GTM: %v", err)
	}
	if final.Context.State != entity.StateGTMReady {
		t.Errorf("state = %q, want %q", final.Context.State, entity.StateGTMReady)
	}
	if final.Doc.Summary.GTM == nil {
		t.Error("GTM approval should merge a GTM summary block")
	}

	// Fan-out runs detached; wait for all four agents to be triggered.
	deadline := time.Now().Add(2 * time.Second)
	for {
		triggers := env.agents.list()
		if len(triggers) >= 4 {
			want := map[string]bool{"core_business": true, "risk:gtm": true, "roadmap": true, "task": true}
			for _, trig := range triggers {
				if !want[trig] {
					t.Errorf("unexpected trigger %q", trig)
				}
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("agent fan-out never completed, got %v", triggers)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSubmitClarificationRetiresQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	start, err := env.uc.StartResearch(ctx, "u1", &entity.StartResearchRequest{
		ProjectID: "p1",
		Intake:    problemIntake(),
	})
	if err != nil {
		t.Fatalf("StartResearch: %v", err)
	}
	before := len(start.Doc.Meta.ClarifyingQuestions)
	if before == 0 {
		t.Fatal("mock synthesis should seed clarifying questions")
	}

	_, err = env.uc.SubmitClarification(ctx, "u1", "p1", "tiny")
	if !errors.Is(err, entity.ErrAnswerTooShort) {
		t.Fatalf("err = %v, want ErrAnswerTooShort", err)
	}

	resp, err := env.uc.SubmitClarification(ctx, "u1", "p1", "They mostly run ad-hoc surveys and gut feel.")
	if err != nil {
		t.Fatalf("SubmitClarification: %v", err)
	}
	if len(resp.Doc.Meta.ClarifyingQuestions) != before-1 {
		t.Errorf("question count = %d, want %d", len(resp.Doc.Meta.ClarifyingQuestions), before-1)
	}
	if len(resp.Doc.Meta.ClarificationAnswers) != 1 {
		t.Errorf("answer count = %d, want 1", len(resp.Doc.Meta.ClarificationAnswers))
	}
}

func TestGateFlagsFollowIntakeOnCoreEdits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.StartResearch(ctx, "u1", &entity.StartResearchRequest{
		ProjectID: "p1",
		Intake:    problemIntake(),
	}); err != nil {
		t.Fatalf("StartResearch: %v", err)
	}

	// A draft solution appears: the solution gate must open.
	resp, err := env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldSolution,
		Text:      "A guided validation workspace for founders",
	})
	if err != nil {
		t.Fatalf("draft solution: %v", err)
	}
	if !resp.Context.Gates.SolutionValidationNeeded {
		t.Error("an unvalidated solution must open the solution gate")
	}

	// Validating closes it.
	resp, err = env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldSolution,
		Text:      "A guided validation workspace for founders",
		Validate:  true,
	})
	if err != nil {
		t.Fatalf("validate solution: %v", err)
	}
	if resp.Context.Gates.SolutionValidationNeeded {
		t.Error("validating the solution must close the solution gate")
	}

	// An un-validating edit reopens it and resets the intake flag.
	resp, err = env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldSolution,
		Text:      "A different solution nobody has validated yet",
	})
	if err != nil {
		t.Fatalf("edit solution: %v", err)
	}
	if !resp.Context.Gates.SolutionValidationNeeded {
		t.Error("editing the solution without validating must reopen the gate")
	}
	if resp.Context.Intake.SolutionValidated {
		t.Error("an un-validating edit must reset solutionValidated")
	}

	// Same contract for the problem field.
	if _, err := env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldProblem,
		Text:      "Founders burn months building before validating the underlying problem",
		Validate:  true,
	}); err != nil {
		t.Fatalf("validate problem: %v", err)
	}
	env.waitForJob(t, "u1", "p1", entity.JobDone)

	resp, err = env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldProblem,
		Text:      "Actually the problem statement needs rework",
	})
	if err != nil {
		t.Fatalf("edit problem: %v", err)
	}
	if !resp.Context.Gates.ProblemValidationNeeded {
		t.Error("editing the problem without validating must reopen the gate")
	}
	if resp.Context.Intake.ProblemValidated {
		t.Error("an un-validating edit must reset problemValidated")
	}
}

func TestPersonaEditTargetsAndReanchors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.StartResearch(ctx, "u1", &entity.StartResearchRequest{
		ProjectID: "p1",
		Intake:    problemIntake(),
	}); err != nil {
		t.Fatalf("StartResearch: %v", err)
	}

	before, _ := env.research.Get(ctx, "u1", "p1")
	solutionBefore := before.Core.Solution.Text

	resp, err := env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldPersona,
		PersonaID: "persona_2",
		Text:      "Bootstrapped solo operator shipping on weekends",
	})
	if err != nil {
		t.Fatalf("UpdateCore: %v", err)
	}

	if resp.Doc.Generation != nil {
		t.Error("a persona description edit must not schedule a regeneration")
	}
	if resp.Doc.Core.Solution.Text != solutionBefore {
		t.Errorf("solution = %q, want untouched %q", resp.Doc.Core.Solution.Text, solutionBefore)
	}
	if resp.Doc.Core.PersonaPrimaryID != "persona_2" {
		t.Errorf("personaPrimaryId = %q, want the edited persona", resp.Doc.Core.PersonaPrimaryID)
	}
	if !resp.Doc.Core.DirtyDownstream {
		t.Error("a persona edit must mark downstream artifacts dirty")
	}

	var edited *entity.Persona
	for i := range resp.Doc.Personas {
		if resp.Doc.Personas[i].ID == "persona_2" {
			edited = &resp.Doc.Personas[i]
		}
	}
	if edited == nil {
		t.Fatal("edited persona missing from document")
	}
	if edited.Description != "Bootstrapped solo operator shipping on weekends" {
		t.Errorf("description = %q, not updated", edited.Description)
	}
	if edited.UpdatedBy != "u1" || edited.UpdatedAt == nil {
		t.Errorf("edit attribution = (%q, %v), want user id and timestamp", edited.UpdatedBy, edited.UpdatedAt)
	}
}

func TestPersonaPrimaryChangeInvalidatesSolution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.StartResearch(ctx, "u1", &entity.StartResearchRequest{
		ProjectID: "p1",
		Intake:    problemIntake(),
	}); err != nil {
		t.Fatalf("StartResearch: %v", err)
	}

	if _, err := env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldSolution,
		Text:      "A guided validation workspace for founders",
		Validate:  true,
	}); err != nil {
		t.Fatalf("validate solution: %v", err)
	}

	resp, err := env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldPersonaPrimary,
		PersonaID: "persona_2",
	})
	if err != nil {
		t.Fatalf("switch primary persona: %v", err)
	}

	if resp.Doc.Generation == nil || resp.Doc.Generation.Status != entity.JobPending {
		t.Fatal("switching the primary persona must schedule a regeneration")
	}
	if resp.Doc.Core.Solution.Text != placeholderSolutionForPersona {
		t.Errorf("solution = %q, want the persona placeholder", resp.Doc.Core.Solution.Text)
	}
	if resp.Context.Intake.SolutionValidated {
		t.Error("a new primary persona must invalidate the solution")
	}
	if !resp.Context.Gates.SolutionValidationNeeded {
		t.Error("the solution gate must reopen after a persona switch")
	}

	env.waitForJob(t, "u1", "p1", entity.JobDone)
}

func TestGTMApprovalAppliesHandoffDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.StartResearch(ctx, "u1", &entity.StartResearchRequest{
		ProjectID: "p1",
		Intake:    problemIntake(),
	}); err != nil {
		t.Fatalf("StartResearch: %v", err)
	}
	if _, err := env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldSolution,
		Text:      "A guided validation workspace for founders",
		Validate:  true,
	}); err != nil {
		t.Fatalf("validate solution: %v", err)
	}
	if _, err := env.uc.LockCore(ctx, "u1", "p1"); err != nil {
		t.Fatalf("LockCore: %v", err)
	}

	approve := true
	if _, err := env.uc.AdvanceGates(ctx, "u1", "p1", &entity.AdvanceGatesRequest{
		ApproveExperiments: &approve,
	}); err != nil {
		t.Fatalf("approve experiments: %v", err)
	}

	final, err := env.uc.AdvanceGates(ctx, "u1", "p1", &entity.AdvanceGatesRequest{
		ApproveProceedToGTM: &approve,
	})
	if err != nil {
		t.Fatalf("approve GTM: %v", err)
	}

	// The synthesis pass supplies a next step, so it wins; it omits the
	// ETA, so the handoff default applies.
	if final.Doc.Summary.NextStep != "Run the landing page smoke test before building anything else." {
		t.Errorf("nextStep = %q, want the synthesized one", final.Doc.Summary.NextStep)
	}
	if final.Doc.Summary.EtaDays != 60 {
		t.Errorf("etaDays = %d, want the GTM handoff default 60", final.Doc.Summary.EtaDays)
	}
}

func TestConcurrentUpdateSupersedesRegen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.uc.StartResearch(ctx, "u1", &entity.StartResearchRequest{
		ProjectID: "p1",
		Intake:    problemIntake(),
	}); err != nil {
		t.Fatalf("StartResearch: %v", err)
	}

	first, err := env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
		ProjectID: "p1",
		Field:     entity.CoreFieldProblem,
		Text:      "Founders burn months building before validating the underlying problem",
		Validate:  true,
	})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	firstJob := first.Doc.Generation.ID

	// A second validation supersedes the first job before it lands. The
	// first job may finalize concurrently, so tolerate a CAS conflict.
	var second *entity.UpdateCoreResponse
	for i := 0; i < 5; i++ {
		second, err = env.uc.UpdateCore(ctx, "u1", &entity.UpdateCoreRequest{
			ProjectID: "p1",
			Field:     entity.CoreFieldProblem,
			Text:      "Founders burn months building the wrong thing before talking to anyone",
			Validate:  true,
		})
		if !errors.Is(err, entity.ErrVersionConflict) {
			break
		}
	}
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if second.Doc.Generation.ID == firstJob {
		t.Fatal("second update must carry a fresh job id")
	}

	done := env.waitForJob(t, "u1", "p1", entity.JobDone)
	if done.Generation.ID != second.Doc.Generation.ID {
		t.Errorf("finished job id = %q, want the superseding job %q", done.Generation.ID, second.Doc.Generation.ID)
	}
}
