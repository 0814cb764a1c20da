package entity

import "errors"

// Domain errors
var (
	// Not-found errors (404-class, never retried)
	ErrProjectNotFound        = errors.New("project not found")
	ErrResearchDocNotFound    = errors.New("research document not found")
	ErrProjectContextNotFound = errors.New("project context not found")
	ErrPersonaNotFound        = errors.New("persona not found")
	ErrAgentDocNotFound       = errors.New("agent document not found")
	ErrDraftNotFound          = errors.New("draft not found")

	// Precondition / validation errors (400-class, surfaced verbatim)
	ErrMissingField         = errors.New("required field is missing")
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrTextRequired         = errors.New("text is required for this update")
	ErrCoreIncomplete       = errors.New("cannot lock core without problem, solution and a primary persona")
	ErrSolutionNotValidated = errors.New("cannot proceed to GTM: solution not validated")
	ErrAnswerTooShort       = errors.New("answer is required and must be at least 5 characters")
	ErrNoPersonaAvailable   = errors.New("no persona available to update")

	// Lifecycle errors
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// Concurrency errors (409-class)
	ErrVersionConflict = errors.New("document version conflict")
)
