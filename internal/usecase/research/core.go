package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/avara-hq/avara-backend/internal/pkg/decision"
	"github.com/avara-hq/avara-backend/internal/pkg/docmerge"
	"github.com/avara-hq/avara-backend/internal/pkg/lifecycle"
	"github.com/avara-hq/avara-backend/internal/pkg/logger"
	"github.com/avara-hq/avara-backend/internal/pkg/normalize"
	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	regenKindSolutionFromProblem = "solution_from_problem"
	regenKindSolutionForPersona  = "solution_for_persona"

	placeholderSolutionFromProblem = "Avara is generating a solution based on your validated problem..."
	placeholderSolutionForPersona  = "Avara is refining the solution for this persona..."
)

// UpdateCore mutates one field of the core triad. Problem validation
// and primary persona changes schedule a background solution
// regeneration; the response carries the placeholder plus the pending
// job record.
func (uc *ResearchUsecase) UpdateCore(
	ctx context.Context,
	userID string,
	req *entity.UpdateCoreRequest,
) (*entity.UpdateCoreResponse, error) {
	if err := uc.validator.ValidateUpdateCore(req); err != nil {
		return nil, err
	}

	doc, err := uc.researchRepo.Get(ctx, userID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	pc, err := uc.contextRepo.Get(ctx, userID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	regenKind := ""

	switch req.Field {
	case entity.CoreFieldProblem:
		doc.Core.Problem.Text = req.Text
		doc.Core.Problem.State = entity.CoreItemDraft
		doc.Intake.Problem = req.Text
		doc.Intake.ProblemValidated = req.Validate
		pc.Intake.Problem = req.Text
		pc.Intake.ProblemValidated = req.Validate
		if req.Validate {
			doc.Core.Problem.State = entity.CoreItemValidated
			regenKind = regenKindSolutionFromProblem
		}

	case entity.CoreFieldSolution:
		doc.Core.Solution.Text = req.Text
		doc.Core.Solution.State = entity.CoreItemDraft
		doc.Intake.Solution = req.Text
		doc.Intake.SolutionExists = true
		doc.Intake.SolutionValidated = req.Validate
		pc.Intake.Solution = req.Text
		pc.Intake.SolutionExists = true
		pc.Intake.SolutionValidated = req.Validate
		if req.Validate {
			doc.Core.Solution.State = entity.CoreItemValidated
		}

	case entity.CoreFieldPersona:
		persona := resolvePersona(doc, req.PersonaID)
		if persona == nil {
			return nil, entity.ErrNoPersonaAvailable
		}
		now := time.Now().UTC()
		persona.Description = req.Text
		persona.UpdatedBy = userID
		persona.UpdatedAt = &now
		doc.Core.PersonaPrimaryID = persona.ID
		doc.Core.DirtyDownstream = true

	case entity.CoreFieldPersonaPrimary:
		if !personaExists(doc, req.PersonaID) {
			return nil, entity.ErrPersonaNotFound
		}
		doc.Core.PersonaPrimaryID = req.PersonaID
		doc.Core.DirtyDownstream = true
		// A new primary persona invalidates the current solution.
		doc.Intake.SolutionValidated = false
		pc.Intake.SolutionValidated = false
		regenKind = regenKindSolutionForPersona
	}

	if doc.Core.Locked {
		doc.Core.DirtyDownstream = true
	}

	// Gate flags are re-derived from the updated intake on every edit,
	// so an un-validating edit reopens the matching gate.
	gate := decision.Decide(pc.Intake)
	pc.Gates.ProblemValidationNeeded = gate.NeedProblem
	pc.Gates.SolutionValidationNeeded = gate.NeedSolution

	var job *entity.GenerationJob
	if regenKind != "" {
		job = &entity.GenerationJob{
			ID:        uuid.New().String(),
			Kind:      regenKind,
			Status:    entity.JobPending,
			StartedAt: time.Now().UTC(),
		}
		doc.Generation = job
		doc.Core.Solution.State = entity.CoreItemDraft
		if regenKind == regenKindSolutionFromProblem {
			doc.Core.Solution.Text = placeholderSolutionFromProblem
		} else {
			doc.Core.Solution.Text = placeholderSolutionForPersona
			doc.Summary.Solution.Notes = placeholderSolutionForPersona
		}
	}

	syncSummary(doc)

	savedDoc, err := uc.researchRepo.Update(ctx, doc)
	if err != nil {
		return nil, err
	}

	savedCtx, err := uc.contextRepo.Save(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("save project context: %w", err)
	}

	uc.syncProjectCard(ctx, savedDoc)

	if job != nil {
		intake := savedDoc.Intake
		core := coreInput(savedDoc)
		bgCtx := logger.AddFields(ctxzap.ToContext(context.Background(), ctxzap.Extract(ctx)),
			zap.String("action", "SolutionRegen-async"),
			zap.String("job_id", job.ID),
		)
		go uc.runSolutionRegen(bgCtx, userID, req.ProjectID, job.ID, intake, core)
	}

	ctxzap.Info(ctx, "core updated",
		zap.String("project_id", req.ProjectID),
		zap.String("field", string(req.Field)),
		zap.Bool("regen_scheduled", job != nil),
	)

	return &entity.UpdateCoreResponse{OK: true, Doc: savedDoc, Context: savedCtx}, nil
}

// LockCore freezes the triad and runs the downstream synthesis pass
// that fills experiments, competitors, timeline and analysis.
func (uc *ResearchUsecase) LockCore(ctx context.Context, userID, projectID string) (*entity.UpdateCoreResponse, error) {
	doc, err := uc.researchRepo.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	pc, err := uc.contextRepo.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.CanLockCore(doc.Core); err != nil {
		return nil, err
	}

	raw, err := uc.synth.Synthesize(ctx, &entity.SynthesizeRequest{
		Mode:   entity.SynthesisDownstream,
		Intake: doc.Intake,
		SPA:    doc.Meta.SPA,
		Core:   coreInput(doc),
		Region: doc.Intake.Region,
	})
	if err != nil {
		// Degrade: lock still succeeds, fallbacks cover the gaps.
		ctxzap.Warn(ctx, "downstream synthesis failed, locking with fallbacks", zap.Error(err))
		raw = nil
	}

	down := normalize.ResearchDoc(raw, projectID)
	mergeDownstream(doc, down)

	doc.Core.Locked = true
	doc.Core.DirtyDownstream = false
	ensureExperimentFallback(doc)

	if pc.State == entity.StateResearch {
		pc.State = entity.StateResearchReady
		doc.State = entity.StateResearchReady
	}

	syncSummary(doc)
	uc.assessReliability(ctx, doc)

	savedDoc, err := uc.researchRepo.Update(ctx, doc)
	if err != nil {
		return nil, err
	}

	savedCtx, err := uc.contextRepo.Save(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("save project context: %w", err)
	}

	uc.syncProjectCard(ctx, savedDoc)

	ctxzap.Info(ctx, "core locked",
		zap.String("project_id", projectID),
		zap.Int("experiment_count", len(savedDoc.Experiments)),
	)

	return &entity.UpdateCoreResponse{OK: true, Doc: savedDoc, Context: savedCtx}, nil
}

// runSolutionRegen is the detached background pass scheduled by
// UpdateCore. It may finalize only while its job id is still the
// document's active generation; a superseding edit abandons it.
func (uc *ResearchUsecase) runSolutionRegen(
	ctx context.Context,
	userID, projectID, jobID string,
	intake entity.Intake,
	core *entity.CoreInput,
) {
	raw, err := uc.synth.Synthesize(ctx, &entity.SynthesizeRequest{
		Mode:   entity.SynthesisRefineSolution,
		Intake: intake,
		Core:   core,
		Region: intake.Region,
	})
	if err != nil {
		ctxzap.Error(ctx, "solution regeneration failed", zap.Error(err))
		uc.finishRegenJob(ctx, userID, projectID, jobID, func(doc *entity.ResearchDoc) {
			doc.Generation.Status = entity.JobFailed
			doc.Generation.Error = err.Error()
		})
		return
	}

	res := normalize.ResearchDoc(raw, projectID)
	solution := res.Summary.Solution.Notes
	if solution == "" {
		ctxzap.Error(ctx, "solution regeneration returned empty solution")
		uc.finishRegenJob(ctx, userID, projectID, jobID, func(doc *entity.ResearchDoc) {
			doc.Generation.Status = entity.JobFailed
			doc.Generation.Error = "synthesis returned no solution"
		})
		return
	}

	uc.finishRegenJob(ctx, userID, projectID, jobID, func(doc *entity.ResearchDoc) {
		doc.Core.Solution.Text = solution
		doc.Core.Solution.State = entity.CoreItemDraft
		doc.Intake.Solution = solution
		doc.Intake.SolutionExists = true
		doc.Sections = docmerge.MergeSections(doc.Sections, res.Sections)
		syncSummary(doc)
		doc.Generation.Status = entity.JobDone
	})
}

// finishRegenJob re-reads the fresh document, verifies the job is still
// the active one and applies the final mutation under version CAS.
func (uc *ResearchUsecase) finishRegenJob(
	ctx context.Context,
	userID, projectID, jobID string,
	apply func(doc *entity.ResearchDoc),
) {
	err := retry.Do(func() error {
		doc, err := uc.researchRepo.Get(ctx, userID, projectID)
		if err != nil {
			return retry.Unrecoverable(err)
		}

		if doc.Generation == nil || doc.Generation.ID != jobID {
			ctxzap.Info(ctx, "regeneration superseded, abandoning result")
			return nil
		}

		apply(doc)
		now := time.Now().UTC()
		doc.Generation.FinishedAt = &now

		if _, err := uc.researchRepo.Update(ctx, doc); err != nil {
			if errors.Is(err, entity.ErrVersionConflict) {
				return err
			}
			return retry.Unrecoverable(err)
		}

		return nil
	},
		retry.Attempts(3),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		ctxzap.Error(ctx, "failed to finalize regeneration job", zap.Error(err))
	}
}

// resolvePersona picks the edit target: the requested persona, then
// the current primary, then the first persona.
func resolvePersona(doc *entity.ResearchDoc, id string) *entity.Persona {
	for i := range doc.Personas {
		if id != "" && doc.Personas[i].ID == id {
			return &doc.Personas[i]
		}
	}
	for i := range doc.Personas {
		if doc.Personas[i].ID == doc.Core.PersonaPrimaryID {
			return &doc.Personas[i]
		}
	}
	if len(doc.Personas) > 0 {
		return &doc.Personas[0]
	}
	return nil
}

func personaExists(doc *entity.ResearchDoc, id string) bool {
	for _, p := range doc.Personas {
		if p.ID == id {
			return true
		}
	}
	return false
}

func coreInput(doc *entity.ResearchDoc) *entity.CoreInput {
	input := &entity.CoreInput{
		Problem:  doc.Core.Problem,
		Solution: doc.Core.Solution,
	}
	if p := doc.PrimaryPersona(); p != nil {
		persona := *p
		input.PrimaryPersona = &persona
	}
	return input
}

// mergeDownstream folds a downstream synthesis result into the doc:
// sections merge incrementally, list artifacts replace when the new
// pass produced them, analysis and summary extras fill gaps.
func mergeDownstream(doc *entity.ResearchDoc, down *entity.ResearchDoc) {
	doc.Sections = docmerge.MergeSections(doc.Sections, down.Sections)

	if len(down.Experiments) > 0 {
		doc.Experiments = down.Experiments
	}
	if len(down.Competitors) > 0 {
		doc.Competitors = down.Competitors
	}
	if len(down.Timeline) > 0 {
		doc.Timeline = down.Timeline
	}
	if down.Analysis.PEST != nil {
		doc.Analysis.PEST = down.Analysis.PEST
	}
	if down.Analysis.SWOT != nil {
		doc.Analysis.SWOT = down.Analysis.SWOT
	}
	if down.Summary.NextStep != "" {
		doc.Summary.NextStep = down.Summary.NextStep
	}
	if down.Summary.EtaDays != 0 {
		doc.Summary.EtaDays = down.Summary.EtaDays
	}
	if down.Summary.GTM != nil {
		doc.Summary.GTM = down.Summary.GTM
	}
	doc.Meta.ClarifyingQuestions = appendUnique(doc.Meta.ClarifyingQuestions, down.Meta.ClarifyingQuestions)
}
