package validator

import (
	"fmt"
	"strings"

	"github.com/avara-hq/avara-backend/internal/entity"
)

// Validator validates incoming request payloads before they reach the
// usecases. Rules mirror the intake wizard's constraints.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateStartResearch validates a finalized intake submission.
// Required fields depend on the chosen path.
func (v *Validator) ValidateStartResearch(req *entity.StartResearchRequest) error {
	if req.ProjectID == "" {
		return fmt.Errorf("%w: projectId", entity.ErrMissingField)
	}
	if req.Name == "" {
		return fmt.Errorf("%w: name", entity.ErrMissingField)
	}
	if req.PathType == "" {
		req.PathType = entity.PathProblem
	}
	if err := req.PathType.Validate(); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
	}

	switch req.PathType {
	case entity.PathProblem:
		if len(strings.TrimSpace(req.Industry)) < 3 {
			return fmt.Errorf("%w: industry is required and must be at least 3 characters", entity.ErrInvalidParameter)
		}
		if len(strings.TrimSpace(req.Problem)) < 10 {
			return fmt.Errorf("%w: problem is required and must be at least 10 characters", entity.ErrInvalidParameter)
		}
	case entity.PathResource:
		if len(strings.TrimSpace(req.ResourceDescription)) < 10 {
			return fmt.Errorf("%w: resource description is required and must be at least 10 characters", entity.ErrInvalidParameter)
		}
	}

	if req.TeamCount < 0 {
		return fmt.Errorf("%w: teamCount must not be negative", entity.ErrInvalidParameter)
	}

	return nil
}

// ValidateSaveDraft validates wizard autosave payloads.
func (v *Validator) ValidateSaveDraft(req *entity.SaveDraftRequest) error {
	if req.ProjectID == "" {
		return fmt.Errorf("%w: projectId", entity.ErrMissingField)
	}
	if req.Step < 0 || req.Step > 5 {
		return fmt.Errorf("%w: step must be between 0 and 5", entity.ErrInvalidParameter)
	}
	if req.Answers.TeamCount != nil && *req.Answers.TeamCount < 0 {
		return fmt.Errorf("%w: teamCount must not be negative", entity.ErrInvalidParameter)
	}
	if req.Answers.PathType != nil {
		if err := req.Answers.PathType.Validate(); err != nil {
			return fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
		}
	}
	return nil
}

// ValidateUpdateCore validates a core triad update.
func (v *Validator) ValidateUpdateCore(req *entity.UpdateCoreRequest) error {
	if req.ProjectID == "" {
		return fmt.Errorf("%w: projectId", entity.ErrMissingField)
	}
	if err := req.Field.Validate(); err != nil {
		return fmt.Errorf("%w: field", entity.ErrInvalidParameter)
	}

	switch req.Field {
	case entity.CoreFieldProblem, entity.CoreFieldSolution, entity.CoreFieldPersona:
		if req.Text == "" {
			return fmt.Errorf("%w: text required for %s update", entity.ErrTextRequired, req.Field)
		}
	case entity.CoreFieldPersonaPrimary:
		if req.PersonaID == "" {
			return fmt.Errorf("%w: personaId required for persona selection", entity.ErrMissingField)
		}
	}

	return nil
}

// ValidateClarification enforces the minimum useful answer length.
func (v *Validator) ValidateClarification(answer string) error {
	if len(strings.TrimSpace(answer)) < 5 {
		return entity.ErrAnswerTooShort
	}
	return nil
}

// ValidateGenerate validates a downstream agent trigger.
func (v *Validator) ValidateGenerate(req *entity.GenerateRequest) error {
	if req.ProjectID == "" {
		return fmt.Errorf("%w: projectId", entity.ErrMissingField)
	}
	return nil
}

// ValidateAnalyseRisk validates a scoped risk analysis trigger.
func (v *Validator) ValidateAnalyseRisk(req *entity.AnalyseRiskRequest) error {
	if req.ProjectID == "" {
		return fmt.Errorf("%w: projectId", entity.ErrMissingField)
	}
	if err := req.Scope.Validate(); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
	}
	return nil
}

// ValidateChat validates a chat-patch request.
func (v *Validator) ValidateChat(service entity.ChatService, req *entity.ChatRequest) error {
	if err := service.Validate(); err != nil {
		return fmt.Errorf("%w: service", entity.ErrInvalidParameter)
	}
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("%w: message", entity.ErrMissingField)
	}
	return nil
}
