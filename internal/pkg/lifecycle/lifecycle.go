// Package lifecycle holds the authoritative project state machine.
// Every gate advance goes through Next; handlers and usecases never
// flip states directly.
package lifecycle

import (
	"fmt"

	"github.com/avara-hq/avara-backend/internal/entity"
)

// Event is a lifecycle-advancing action.
type Event string

const (
	EventStartResearch      Event = "start_research"
	EventApproveExperiments Event = "approve_experiments"
	EventApproveGTM         Event = "approve_proceed_to_gtm"
)

// Conditions carries the document facts a transition may depend on.
type Conditions struct {
	SolutionValidated bool
}

// Next returns the state the project moves to when event fires in the
// given state. Precondition violations and unknown transitions return
// an error and leave the caller's state untouched.
func Next(state entity.ProjectState, event Event, cond Conditions) (entity.ProjectState, error) {
	switch event {
	case EventStartResearch:
		// Intake can be resubmitted while the project is still in the
		// research phase; the submission upserts.
		switch state {
		case entity.StateDraft, entity.StateResearch, entity.StateResearchReady, "":
			return entity.StateResearch, nil
		}

	case EventApproveExperiments:
		switch state {
		case entity.StateResearch, entity.StateResearchReady, entity.StateValidation:
			return entity.StateValidation, nil
		}

	case EventApproveGTM:
		if !cond.SolutionValidated {
			return state, entity.ErrSolutionNotValidated
		}
		switch state {
		case entity.StateResearch, entity.StateResearchReady, entity.StateValidation, entity.StateGTMReady:
			return entity.StateGTMReady, nil
		}
	}

	return state, fmt.Errorf("%w: %s on %q", entity.ErrInvalidTransition, event, state)
}

// CanLockCore reports whether the core triad is complete enough to
// lock: problem text, solution text and a primary persona reference.
func CanLockCore(core entity.CoreTriad) error {
	if core.Problem.Text == "" || core.Solution.Text == "" {
		return entity.ErrCoreIncomplete
	}
	if core.PersonaPrimaryID == "" {
		return entity.ErrCoreIncomplete
	}
	return nil
}
