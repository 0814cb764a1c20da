package research

import (
	"context"
	"strings"

	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	fallbackPersonaID   = "persona_default"
	fallbackPersonaName = "Target User"

	fallbackExperimentID    = "exp_default"
	fallbackExperimentTitle = "Validate core assumptions"
)

// enrichIntake asks the insights service for SPA scoring and persona
// exploration. The service is advisory: failure degrades to nil.
func (uc *ResearchUsecase) enrichIntake(ctx context.Context, intake entity.Intake) *entity.IntakeInsights {
	insights, err := uc.insights.EnrichIntake(ctx, intake)
	if err != nil {
		ctxzap.Warn(ctx, "intake enrichment unavailable, continuing without", zap.Error(err))
		return nil
	}

	return insights
}

// assessReliability runs the critic over the current doc and attaches
// the result. Failure degrades to a nil reliability block.
func (uc *ResearchUsecase) assessReliability(ctx context.Context, doc *entity.ResearchDoc) {
	rel, err := uc.insights.AssessReliability(ctx, &entity.ReliabilityRequest{
		Intake: doc.Intake,
		Doc:    doc,
	})
	if err != nil {
		ctxzap.Warn(ctx, "reliability assessment unavailable", zap.Error(err))
		return
	}

	doc.Meta.Reliability = rel
}

func insightsSPA(insights *entity.IntakeInsights) *entity.SPA {
	if insights == nil {
		return nil
	}
	return insights.SPA
}

// assessIntakeQuality flags a thin problem-path intake. Resource-path
// intakes are exempt: their substance lives in resourceDescription,
// which the validator already bounds.
func (uc *ResearchUsecase) assessIntakeQuality(intake entity.Intake) entity.IntakeQuality {
	quality := entity.IntakeQuality{ClarifyingQuestions: []string{}}
	if intake.PathType != entity.PathProblem {
		return quality
	}

	if len(strings.TrimSpace(intake.Industry)) < 3 {
		quality.IsWeak = true
		quality.ClarifyingQuestions = append(quality.ClarifyingQuestions,
			"Which industry or market does this idea live in?")
	}
	if len(strings.TrimSpace(intake.Region)) < 2 {
		quality.IsWeak = true
		quality.ClarifyingQuestions = append(quality.ClarifyingQuestions,
			"Which region or market do you want to start in?")
	}
	if len(strings.TrimSpace(intake.Problem)) < 10 {
		quality.IsWeak = true
		quality.ClarifyingQuestions = append(quality.ClarifyingQuestions,
			"Describe the problem in a full sentence: who has it and when does it hurt?")
	}
	if intake.SolutionExists && len(strings.TrimSpace(intake.Solution)) < 10 {
		quality.IsWeak = true
		quality.ClarifyingQuestions = append(quality.ClarifyingQuestions,
			"Describe your solution in a full sentence: what does it do for the user?")
	}

	return quality
}

// applyIntakeQuality folds quality flags into doc meta, falling back to
// the configured default questions when nothing better is available.
func (uc *ResearchUsecase) applyIntakeQuality(doc *entity.ResearchDoc, quality entity.IntakeQuality) {
	if !quality.IsWeak {
		return
	}

	doc.Meta.NeedMoreInput = true
	doc.Meta.ClarifyingQuestions = appendUnique(doc.Meta.ClarifyingQuestions, quality.ClarifyingQuestions)

	if len(doc.Meta.ClarifyingQuestions) == 0 {
		doc.Meta.ClarifyingQuestions = append([]string{}, uc.defaultQuestions...)
	}
}

// applyInsights folds advisory enrichment into the doc.
func applyInsights(doc *entity.ResearchDoc, insights *entity.IntakeInsights) {
	if insights == nil {
		return
	}

	if insights.SPA != nil {
		doc.Meta.SPA = insights.SPA
	}
	if len(doc.Personas) == 0 && len(insights.Personas) > 0 {
		doc.Personas = insights.Personas
	}
	if len(doc.Competitors) == 0 && len(insights.Competitors) > 0 {
		doc.Competitors = insights.Competitors
	}
	doc.Meta.ClarifyingQuestions = appendUnique(doc.Meta.ClarifyingQuestions, insights.ClarifyingQuestions)
}

// buildCoreTriad seeds the triad from founder intake, preferring the
// founder's own words over synthesized summary notes.
func buildCoreTriad(intake entity.Intake, doc *entity.ResearchDoc) entity.CoreTriad {
	problemText := strings.TrimSpace(intake.Problem)
	if problemText == "" {
		problemText = doc.Summary.Problem.Notes
	}

	solutionText := strings.TrimSpace(intake.Solution)
	if solutionText == "" {
		solutionText = doc.Summary.Solution.Notes
	}

	triad := entity.CoreTriad{
		Problem:  entity.CoreItem{Text: problemText, State: entity.CoreItemDraft},
		Solution: entity.CoreItem{Text: solutionText, State: entity.CoreItemDraft},
	}

	if intake.ProblemValidated {
		triad.Problem.State = entity.CoreItemValidated
	}
	if intake.SolutionValidated && solutionText != "" {
		triad.Solution.State = entity.CoreItemValidated
	}

	return triad
}

// ensurePersonaFallback guarantees at least one persona and a primary
// persona id, even when synthesis returned none.
func ensurePersonaFallback(doc *entity.ResearchDoc) {
	if len(doc.Personas) == 0 {
		doc.Personas = []entity.Persona{{
			ID:          fallbackPersonaID,
			Type:        entity.PersonaPrimary,
			Title:       fallbackPersonaName,
			Description: "Placeholder persona until research identifies a sharper target.",
		}}
	}

	if doc.Core.PersonaPrimaryID != "" {
		return
	}

	for _, p := range doc.Personas {
		if p.Type == entity.PersonaPrimary {
			doc.Core.PersonaPrimaryID = p.ID
			return
		}
	}
	doc.Core.PersonaPrimaryID = doc.Personas[0].ID
}

// ensureExperimentFallback guarantees the pack ships with at least one
// runnable experiment.
func ensureExperimentFallback(doc *entity.ResearchDoc) {
	if len(doc.Experiments) > 0 {
		return
	}

	doc.Experiments = []entity.Experiment{{
		ID:         fallbackExperimentID,
		Title:      fallbackExperimentTitle,
		Hypothesis: "The core problem and persona survive contact with ten real conversations.",
		Metric:     "confirmed problem mentions",
		Status:     "planned",
	}}
}

// syncSummary keeps the summary states consistent with the triad.
func syncSummary(doc *entity.ResearchDoc) {
	switch {
	case doc.Core.Problem.Text == "":
		doc.Summary.Problem.State = entity.SummaryUnclear
	case doc.Core.Problem.State == entity.CoreItemValidated:
		doc.Summary.Problem.State = entity.SummaryValidated
	default:
		doc.Summary.Problem.State = entity.SummaryUnvalidated
	}
	if doc.Summary.Problem.Notes == "" {
		doc.Summary.Problem.Notes = doc.Core.Problem.Text
	}

	switch {
	case doc.Core.Solution.Text == "":
		doc.Summary.Solution.State = entity.SummaryNone
	case doc.Core.Solution.State == entity.CoreItemValidated:
		doc.Summary.Solution.State = entity.SummaryValidated
	default:
		doc.Summary.Solution.State = entity.SummaryUnvalidated
	}
	if doc.Summary.Solution.Notes == "" {
		doc.Summary.Solution.Notes = doc.Core.Solution.Text
	}
}

// syncProjectCard refreshes the denormalized listing card. Card drift
// is tolerable, so failures are logged and swallowed.
func (uc *ResearchUsecase) syncProjectCard(ctx context.Context, doc *entity.ResearchDoc) {
	_, err := uc.projectRepo.Upsert(ctx, &entity.Project{
		UserID:    doc.UserID,
		ProjectID: doc.ProjectID,
		Name:      doc.Intake.Name,
		Industry:  doc.Intake.Industry,
		Region:    doc.Intake.Region,
		Status:    doc.State,
	})
	if err != nil {
		ctxzap.Warn(ctx, "project card sync failed", zap.Error(err))
	}
}

// syncProjectCardFromDraft opportunistically refreshes the card from
// partial wizard answers.
func (uc *ResearchUsecase) syncProjectCardFromDraft(ctx context.Context, pc *entity.ProjectContext) {
	if pc.Draft == nil {
		return
	}

	name := pc.Intake.Name
	if name == "" {
		name = pc.ProjectID
	}

	_, err := uc.projectRepo.Upsert(ctx, &entity.Project{
		UserID:    pc.UserID,
		ProjectID: pc.ProjectID,
		Name:      name,
		Industry:  pc.Draft.Answers.Industry,
		Region:    pc.Draft.Answers.Region,
		Status:    pc.State,
	})
	if err != nil {
		ctxzap.Warn(ctx, "project card sync failed", zap.Error(err))
	}
}

func appendUnique(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, s := range dst {
		seen[s] = struct{}{}
	}
	for _, s := range src {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}
