// Package decision computes validation gates from an intake snapshot.
package decision

import "github.com/avara-hq/avara-backend/internal/entity"

// Decide derives the validation gates for an intake. Re-run whenever
// intake fields affecting validation change, to keep
// ProjectContext.gates in sync.
func Decide(intake entity.Intake) entity.GateDecision {
	needProblem := !intake.ProblemValidated
	needSolution := intake.SolutionExists && !intake.SolutionValidated

	var plan []entity.GatePlanStage
	if needProblem {
		plan = append(plan, entity.GatePlanStage{
			Stage:    "problem_validation",
			Evidence: []string{"market_size_signals", "search_trends", "customer_complaints", "competitor_positioning"},
		})
	}
	if needSolution {
		plan = append(plan, entity.GatePlanStage{
			Stage:    "solution_validation",
			Evidence: []string{"benchmarks", "switching_costs", "distribution_access", "pricing_bands"},
		})
	}
	// Terminal stage, always present.
	plan = append(plan, entity.GatePlanStage{
		Stage:    "research_pack",
		Evidence: []string{"macro", "micro", "competitors", "channels", "pricing"},
	})

	return entity.GateDecision{
		NeedProblem:  needProblem,
		NeedSolution: needSolution,
		Plan:         plan,
	}
}
