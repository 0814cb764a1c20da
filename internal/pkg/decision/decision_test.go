package decision

import (
	"testing"

	"github.com/avara-hq/avara-backend/internal/entity"
)

func TestDecide_NeedSolutionImpliesSolutionExists(t *testing.T) {
	// needSolution may only be true when solutionExists is true,
	// whatever combination of validation flags the intake carries.
	for _, exists := range []bool{true, false} {
		for _, probVal := range []bool{true, false} {
			for _, solVal := range []bool{true, false} {
				gate := Decide(entity.Intake{
					SolutionExists:    exists,
					ProblemValidated:  probVal,
					SolutionValidated: solVal,
				})
				if gate.NeedSolution && !exists {
					t.Fatalf("needSolution=true without solutionExists (probVal=%v solVal=%v)", probVal, solVal)
				}
			}
		}
	}
}

func TestDecide_ProblemGate(t *testing.T) {
	gate := Decide(entity.Intake{ProblemValidated: false})
	if !gate.NeedProblem {
		t.Fatal("unvalidated problem must require validation")
	}
	gate = Decide(entity.Intake{ProblemValidated: true})
	if gate.NeedProblem {
		t.Fatal("validated problem must not require validation")
	}
}

func TestDecide_PlanOrderAndTerminalStage(t *testing.T) {
	gate := Decide(entity.Intake{SolutionExists: true})
	if len(gate.Plan) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(gate.Plan))
	}
	if gate.Plan[0].Stage != "problem_validation" || gate.Plan[1].Stage != "solution_validation" {
		t.Fatalf("unexpected stage order: %+v", gate.Plan)
	}
	if gate.Plan[len(gate.Plan)-1].Stage != "research_pack" {
		t.Fatal("research_pack must always be the terminal stage")
	}

	// Fully validated intake still gets the terminal stage.
	gate = Decide(entity.Intake{ProblemValidated: true, SolutionExists: true, SolutionValidated: true})
	if len(gate.Plan) != 1 || gate.Plan[0].Stage != "research_pack" {
		t.Fatalf("expected only research_pack, got %+v", gate.Plan)
	}
}
