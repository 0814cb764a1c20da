package lifecycle

import (
	"errors"
	"testing"

	"github.com/avara-hq/avara-backend/internal/entity"
)

func TestNext_StartResearchFromDraft(t *testing.T) {
	next, err := Next(entity.StateDraft, EventStartResearch, Conditions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != entity.StateResearch {
		t.Fatalf("expected research, got %q", next)
	}
}

func TestNext_StartResearchResubmission(t *testing.T) {
	next, err := Next(entity.StateResearch, EventStartResearch, Conditions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != entity.StateResearch {
		t.Fatalf("expected research, got %q", next)
	}
}

func TestNext_StartResearchAfterGTMRejected(t *testing.T) {
	_, err := Next(entity.StateGTMReady, EventStartResearch, Conditions{})
	if !errors.Is(err, entity.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestNext_ApproveExperiments(t *testing.T) {
	next, err := Next(entity.StateResearch, EventApproveExperiments, Conditions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != entity.StateValidation {
		t.Fatalf("expected validation, got %q", next)
	}
}

func TestNext_ApproveExperimentsFromDraftRejected(t *testing.T) {
	_, err := Next(entity.StateDraft, EventApproveExperiments, Conditions{})
	if !errors.Is(err, entity.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestNext_GTMRequiresValidatedSolution(t *testing.T) {
	state, err := Next(entity.StateValidation, EventApproveGTM, Conditions{SolutionValidated: false})
	if !errors.Is(err, entity.ErrSolutionNotValidated) {
		t.Fatalf("expected ErrSolutionNotValidated, got %v", err)
	}
	if state != entity.StateValidation {
		t.Fatalf("state must not change on rejected transition, got %q", state)
	}
}

func TestNext_GTMApproved(t *testing.T) {
	next, err := Next(entity.StateValidation, EventApproveGTM, Conditions{SolutionValidated: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != entity.StateGTMReady {
		t.Fatalf("expected gtm_ready, got %q", next)
	}
}

func TestCanLockCore(t *testing.T) {
	complete := entity.CoreTriad{
		Problem:          entity.CoreItem{Text: "students lack affordable tutoring"},
		Solution:         entity.CoreItem{Text: "peer tutoring marketplace"},
		PersonaPrimaryID: "persona_0",
	}
	if err := CanLockCore(complete); err != nil {
		t.Fatalf("complete triad must lock, got %v", err)
	}

	for name, broken := range map[string]entity.CoreTriad{
		"no problem":  {Solution: entity.CoreItem{Text: "x"}, PersonaPrimaryID: "p"},
		"no solution": {Problem: entity.CoreItem{Text: "x"}, PersonaPrimaryID: "p"},
		"no persona":  {Problem: entity.CoreItem{Text: "x"}, Solution: entity.CoreItem{Text: "y"}},
	} {
		if err := CanLockCore(broken); !errors.Is(err, entity.ErrCoreIncomplete) {
			t.Fatalf("%s: expected ErrCoreIncomplete, got %v", name, err)
		}
	}
}
