package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/avara-hq/avara-backend/internal/pkg/formatter"
	"github.com/avara-hq/avara-backend/internal/pkg/lifecycle"
	"github.com/avara-hq/avara-backend/internal/pkg/logger"
	"github.com/avara-hq/avara-backend/internal/pkg/normalize"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// AdvanceGates applies explicit founder approvals. Approving GTM runs
// the GTM synthesis pass and fans generation triggers out to the
// downstream agents.
func (uc *ResearchUsecase) AdvanceGates(
	ctx context.Context,
	userID, projectID string,
	req *entity.AdvanceGatesRequest,
) (*entity.ResearchResponse, error) {
	doc, err := uc.researchRepo.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	pc, err := uc.contextRepo.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	fanOut := false

	if req.ApproveExperiments != nil && *req.ApproveExperiments {
		next, err := lifecycle.Next(pc.State, lifecycle.EventApproveExperiments, lifecycle.Conditions{})
		if err != nil {
			return nil, err
		}
		pc.State = next
		doc.State = next
		pc.Gates.UserApprovedExperiments = true
	}

	if req.ApproveProceedToGTM != nil && *req.ApproveProceedToGTM {
		cond := lifecycle.Conditions{
			SolutionValidated: doc.Summary.Solution.State == entity.SummaryValidated,
		}
		next, err := lifecycle.Next(pc.State, lifecycle.EventApproveGTM, cond)
		if err != nil {
			return nil, err
		}

		raw, synthErr := uc.synth.Synthesize(ctx, &entity.SynthesizeRequest{
			Mode:   entity.SynthesisDownstream,
			GTM:    true,
			Intake: doc.Intake,
			SPA:    doc.Meta.SPA,
			Core:   coreInput(doc),
			Region: doc.Intake.Region,
		})
		if synthErr != nil {
			ctxzap.Warn(ctx, "GTM synthesis failed, approving without fresh GTM content", zap.Error(synthErr))
			raw = nil
		}

		gtm := normalize.ResearchDoc(raw, projectID)
		mergeDownstream(doc, gtm)
		applyPostGTMDefaults(doc, raw)

		pc.State = next
		doc.State = next
		pc.Gates.UserApprovedProceedToGTM = true
		fanOut = true
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

	if fanOut {
		bgCtx := logger.AddFields(ctxzap.ToContext(context.Background(), ctxzap.Extract(ctx)),
			zap.String("action", "GTMFanOut-async"),
			zap.String("project_id", projectID),
		)
		go func() {
			uc.agents.TriggerCoreBusiness(bgCtx, userID, projectID)
			uc.agents.TriggerRisk(bgCtx, userID, projectID, entity.RiskScopeGTM)
			uc.agents.TriggerRoadmap(bgCtx, userID, projectID)
			uc.agents.TriggerTask(bgCtx, userID, projectID)
		}()
	}

	ctxzap.Info(ctx, "gates advanced",
		zap.String("project_id", projectID),
		zap.String("state", string(savedCtx.State)),
		zap.Bool("fan_out", fanOut),
	)

	return &entity.ResearchResponse{Doc: savedDoc, Context: savedCtx}, nil
}

const (
	postGTMNextStep = "Execute GTM plan & prepare Risk Agent handoff"
	postGTMEtaDays  = 60
)

// applyPostGTMDefaults moves the summary onto the GTM handoff footing
// when the GTM pass did not supply its own next step or ETA. Inspects
// the raw response because the normalizer fills pre-GTM defaults.
func applyPostGTMDefaults(doc *entity.ResearchDoc, raw entity.RawDocument) {
	summary, _ := raw["summary"].(map[string]any)
	if s, _ := summary["nextStep"].(string); strings.TrimSpace(s) == "" {
		doc.Summary.NextStep = postGTMNextStep
	}
	if _, ok := summary["etaDays"]; !ok {
		doc.Summary.EtaDays = postGTMEtaDays
	}
}

// SubmitClarification records a founder answer to a pending clarifying
// question and retires the question it answers.
func (uc *ResearchUsecase) SubmitClarification(
	ctx context.Context,
	userID, projectID, answer string,
) (*entity.ResearchResponse, error) {
	if err := uc.validator.ValidateClarification(answer); err != nil {
		return nil, err
	}

	doc, err := uc.researchRepo.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	doc.Meta.ClarificationAnswers = append(doc.Meta.ClarificationAnswers, entity.Clarification{
		Answer: strings.TrimSpace(answer),
		Date:   time.Now().UTC(),
	})

	if len(doc.Meta.ClarifyingQuestions) > 0 {
		doc.Meta.ClarifyingQuestions = doc.Meta.ClarifyingQuestions[1:]
	}
	if len(doc.Meta.ClarifyingQuestions) == 0 {
		doc.Meta.NeedMoreInput = false
	}

	// On the problem path the answers double as resource hints for the
	// next synthesis pass.
	if doc.PathType == entity.PathProblem {
		hint := strings.TrimSpace(answer)
		if doc.Intake.ResourceDescription == "" {
			doc.Intake.ResourceDescription = hint
		} else {
			doc.Intake.ResourceDescription += "\n" + hint
		}
	}

	savedDoc, err := uc.researchRepo.Update(ctx, doc)
	if err != nil {
		return nil, err
	}

	pc, err := uc.contextRepo.Get(ctx, userID, projectID)
	if err == nil {
		pc.Meta.ClarifyingQuestions = savedDoc.Meta.ClarifyingQuestions
		pc.Meta.NeedMoreInput = savedDoc.Meta.NeedMoreInput
		if pc, err = uc.contextRepo.Save(ctx, pc); err != nil {
			return nil, fmt.Errorf("save project context: %w", err)
		}
	} else {
		pc = nil
	}

	ctxzap.Info(ctx, "clarification recorded",
		zap.String("project_id", projectID),
		zap.Int("remaining_questions", len(savedDoc.Meta.ClarifyingQuestions)),
	)

	return &entity.ResearchResponse{Doc: savedDoc, Context: pc}, nil
}

// ExportResearch renders the research pack in the requested format.
func (uc *ResearchUsecase) ExportResearch(
	ctx context.Context,
	userID, projectID string,
	format entity.ExportFormat,
) ([]byte, string, string, error) {
	if err := format.Validate(); err != nil {
		return nil, "", "", err
	}

	doc, err := uc.researchRepo.Get(ctx, userID, projectID)
	if err != nil {
		return nil, "", "", err
	}

	f, err := formatter.NewFactory().Create(format)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: %s", entity.ErrInvalidParameter, format)
	}

	title := doc.Intake.Name
	if title == "" {
		title = projectID
	}

	content, err := f.Format(title, formatter.RenderResearchText(doc))
	if err != nil {
		return nil, "", "", fmt.Errorf("render research pack: %w", err)
	}

	filename := fmt.Sprintf("research-%s%s", projectID, f.FileExtension())

	ctxzap.Info(ctx, "research pack exported",
		zap.String("project_id", projectID),
		zap.String("format", string(format)),
	)

	return content, f.ContentType(), filename, nil
}
