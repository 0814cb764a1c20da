package entity

import (
	"fmt"
	"time"
)

// ProjectState is the canonical lifecycle state of a project.
type ProjectState string

const (
	StateDraft         ProjectState = "draft"
	StateResearch      ProjectState = "research"
	StateResearchReady ProjectState = "research_ready"
	StateValidation    ProjectState = "validation"
	StateGTMReady      ProjectState = "gtm_ready"

	// Terminal annotations only; nothing transitions through them.
	StateRisk    ProjectState = "risk"
	StateRoadmap ProjectState = "roadmap"
)

type PathType string

const (
	PathProblem  PathType = "problem"
	PathResource PathType = "resource"
)

func (p *PathType) Validate() error {
	switch *p {
	case PathProblem, PathResource:
		return nil
	default:
		return fmt.Errorf("unknown path type: %s", *p)
	}
}

// Intake holds the founder-provided facts captured by the wizard.
type Intake struct {
	PathType PathType `json:"pathType"`
	Name     string   `json:"name"`

	Industry         string `json:"industry"`
	Problem          string `json:"problem"`
	ProblemValidated bool   `json:"problemValidated"`

	Solution          string `json:"solution"`
	SolutionExists    bool   `json:"solutionExists"`
	SolutionValidated bool   `json:"solutionValidated"`

	ResourceDescription string `json:"resourceDescription"`
	ResourceIntent      string `json:"resourceIntent"`

	ProgressBrief string   `json:"progressBrief"`
	TeamCount     int      `json:"teamCount"`
	TeamSkills    []string `json:"teamSkills"`
	Capital       float64  `json:"capital"`
	Region        string   `json:"region"`
}

// Gates holds derived validation needs plus explicit user approvals.
type Gates struct {
	ProblemValidationNeeded  bool `json:"problemValidationNeeded"`
	SolutionValidationNeeded bool `json:"solutionValidationNeeded"`
	UserApprovedExperiments  bool `json:"userApprovedExperiments"`
	UserApprovedProceedToGTM bool `json:"userApprovedProceedToGTM"`
}

// DraftAnswers is the partial wizard state autosaved between steps.
// Pointers distinguish "not answered yet" from an explicit false/zero.
type DraftAnswers struct {
	PathType            *PathType `json:"pathType,omitempty"`
	Industry            string    `json:"industry,omitempty"`
	Problem             string    `json:"problem,omitempty"`
	ProblemValidated    *bool     `json:"problemValidated,omitempty"`
	Solution            string    `json:"solution,omitempty"`
	SolutionExists      *bool     `json:"solutionExists,omitempty"`
	SolutionValidated   *bool     `json:"solutionValidated,omitempty"`
	ResourceDescription string    `json:"resourceDescription,omitempty"`
	ResourceIntent      string    `json:"resourceIntent,omitempty"`
	TeamCount           *int      `json:"teamCount,omitempty"`
	TeamSkills          []string  `json:"teamSkills,omitempty"`
	Region              string    `json:"region,omitempty"`
}

type Draft struct {
	Step    int          `json:"step"`
	Answers DraftAnswers `json:"answers"`
}

// ContextMeta carries advisory flags the intake chat agent maintains.
type ContextMeta struct {
	ReadyForResearch    bool     `json:"readyForResearch"`
	NeedMoreInput       bool     `json:"needMoreInput"`
	ClarifyingQuestions []string `json:"clarifyingQuestions,omitempty"`
}

// ProjectContext is the canonical state machine instance per project.
// Exactly one exists per (userId, projectId).
type ProjectContext struct {
	UserID    string       `json:"userId"`
	ProjectID string       `json:"projectId"`
	Intake    Intake       `json:"intake"`
	State     ProjectState `json:"state"`
	Gates     Gates        `json:"gates"`
	Draft     *Draft       `json:"draft,omitempty"`
	Meta      ContextMeta  `json:"meta"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Project is the denormalized listing card, looser than the context state.
type Project struct {
	UserID    string       `json:"userId"`
	ProjectID string       `json:"projectId"`
	Name      string       `json:"name"`
	Industry  string       `json:"industry"`
	Region    string       `json:"region"`
	Status    ProjectState `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type CoreItemState string

const (
	CoreItemDraft     CoreItemState = "draft"
	CoreItemValidated CoreItemState = "validated"
)

type CoreItem struct {
	Text  string        `json:"text"`
	State CoreItemState `json:"state"`
}

// CoreTriad anchors the project: problem, solution and primary persona.
// Once Locked, the triad is immutable input to downstream synthesis.
type CoreTriad struct {
	Problem          CoreItem `json:"problem"`
	Solution         CoreItem `json:"solution"`
	PersonaPrimaryID string   `json:"personaPrimaryId,omitempty"`
	Locked           bool     `json:"locked"`
	DirtyDownstream  bool     `json:"dirtyDownstream"`
}

type PersonaType string

const (
	PersonaPrimary   PersonaType = "primary"
	PersonaSecondary PersonaType = "secondary"
	PersonaFuture    PersonaType = "future"
)

type Persona struct {
	ID          string      `json:"id"`
	Type        PersonaType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Confidence  float64     `json:"confidence,omitempty"`
	UpdatedBy   string      `json:"updatedBy,omitempty"`
	UpdatedAt   *time.Time  `json:"updatedAt,omitempty"`
}

// Section is a narrative content block. Sections merge incrementally
// across synthesis passes and are never wholesale-replaced.
type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
	HTML  string `json:"html"`
}

type Experiment struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Hypothesis string `json:"hypothesis"`
	Metric     string `json:"metric"`
	Status     string `json:"status"`
}

type Competitor struct {
	Name        string `json:"name"`
	Positioning string `json:"positioning"`
	Strengths   string `json:"strengths"`
	Weaknesses  string `json:"weaknesses"`
	Overlap     string `json:"overlap"`
}

type Milestone struct {
	Label   string `json:"label"`
	EtaDays int    `json:"etaDays,omitempty"`
}

type SummaryItemState string

const (
	SummaryValidated   SummaryItemState = "validated"
	SummaryUnvalidated SummaryItemState = "unvalidated"
	SummaryUnclear     SummaryItemState = "unclear"
	SummaryNone        SummaryItemState = "none"
)

type SummaryItem struct {
	State SummaryItemState `json:"state"`
	Notes string           `json:"notes"`
}

type GTMSummary struct {
	Strategy   string   `json:"strategy"`
	Summary    string   `json:"summary"`
	Channels   []string `json:"channels"`
	Confidence float64  `json:"confidence,omitempty"`
}

type Summary struct {
	Problem  SummaryItem `json:"problem"`
	Solution SummaryItem `json:"solution"`
	NextStep string      `json:"nextStep"`
	EtaDays  int         `json:"etaDays"`
	GTM      *GTMSummary `json:"gtm,omitempty"`
}

// SPA is the size/pain/accessibility assessment of the market wedge.
type SPA struct {
	SizeScore          float64 `json:"sizeScore"`
	PainScore          float64 `json:"painScore"`
	AccessibilityScore float64 `json:"accessibilityScore"`
	Commentary         string  `json:"commentary"`
}

type IndustryRecommendation struct {
	RecommendedIndustry string   `json:"recommendedIndustry"`
	Alternatives        []string `json:"alternatives"`
	Reasoning           string   `json:"reasoning"`
}

// Reliability is the critic's trust assessment of a generated pack.
type Reliability struct {
	ReliabilityScore  float64  `json:"reliabilityScore"`
	Concerns          []string `json:"concerns"`
	RecommendedChecks []string `json:"recommendedChecks"`
	VersionTag        string   `json:"versionTag"`
}

type Clarification struct {
	Answer string    `json:"answer"`
	Date   time.Time `json:"date"`
}

// DocMeta is advisory and gating metadata, never founder-authored.
type DocMeta struct {
	SPA                    *SPA                    `json:"spa,omitempty"`
	ClarifyingQuestions    []string                `json:"clarifyingQuestions"`
	NeedMoreInput          bool                    `json:"needMoreInput"`
	Reliability            *Reliability            `json:"reliability,omitempty"`
	IndustryRecommendation *IndustryRecommendation `json:"industryRecommendation,omitempty"`
	ProblemRefinement      string                  `json:"problemRefinement,omitempty"`
	ExperimentHints        []string                `json:"experimentHints,omitempty"`
	ClarificationAnswers   []Clarification         `json:"clarificationAnswers,omitempty"`
}

type PESTAnalysis struct {
	Political     string `json:"political"`
	Economic      string `json:"economic"`
	Social        string `json:"social"`
	Technological string `json:"technological"`
	Environmental string `json:"environmental"`
	Legal         string `json:"legal"`
}

type SWOTAnalysis struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

type Analysis struct {
	PEST *PESTAnalysis `json:"pest,omitempty"`
	SWOT *SWOTAnalysis `json:"swot,omitempty"`
}

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// GenerationJob tracks a detached background synthesis attached to the
// document. The background task may finalize only while its job id is
// still the document's active one.
type GenerationJob struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Status     JobStatus  `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// ResearchDoc is the shared upstream document every downstream agent
// derives from. One per (userId, projectId).
type ResearchDoc struct {
	UserID    string       `json:"userId"`
	ProjectID string       `json:"projectId"`
	PathType  PathType     `json:"pathType"`
	State     ProjectState `json:"state"`
	Intake    Intake       `json:"intake"`

	Core        CoreTriad    `json:"core"`
	Meta        DocMeta      `json:"meta"`
	Sections    []Section    `json:"sections"`
	Experiments []Experiment `json:"experiments"`
	Personas    []Persona    `json:"personas"`
	Competitors []Competitor `json:"competitors"`
	Timeline    []Milestone  `json:"timeline"`
	Summary     Summary      `json:"summary"`
	Analysis    Analysis     `json:"analysis"`

	Generation *GenerationJob `json:"generation,omitempty"`

	// Version increments on every persisted write; updates are
	// compare-and-swap against it.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PrimaryPersona resolves core.personaPrimaryId, falling back to the
// first persona when the reference is unset or stale.
func (d *ResearchDoc) PrimaryPersona() *Persona {
	for i := range d.Personas {
		if d.Personas[i].ID == d.Core.PersonaPrimaryID {
			return &d.Personas[i]
		}
	}
	if len(d.Personas) > 0 {
		return &d.Personas[0]
	}
	return nil
}

// ---- Downstream documents: pure projections of the ResearchDoc. ----

type CoreBusinessDoc struct {
	UserID         string    `json:"userId"`
	ProjectID      string    `json:"projectId"`
	Purpose        string    `json:"purpose"`
	Mission        string    `json:"mission"`
	Vision         string    `json:"vision"`
	StrategicFocus string    `json:"strategicFocus"`
	BrandValues    []string  `json:"brandValues"`
	Tagline        string    `json:"tagline"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type RiskScope string

const (
	RiskScopeProblem RiskScope = "problem"
	RiskScopeCore    RiskScope = "core"
	RiskScopeGTM     RiskScope = "gtm"
)

func (s *RiskScope) Validate() error {
	switch *s {
	case RiskScopeProblem, RiskScopeCore, RiskScopeGTM:
		return nil
	default:
		return fmt.Errorf("unknown risk scope: %s", *s)
	}
}

type RiskItem struct {
	ID          string    `json:"id"`
	Scope       RiskScope `json:"scope"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Impact      int       `json:"impact"`
	Likelihood  int       `json:"likelihood"`
	Severity    string    `json:"severity"`
	Mitigation  string    `json:"mitigation"`
	SourceHint  string    `json:"sourceHint,omitempty"`
}

// RiskDoc keeps three independently updated scope arrays; an analyse
// call for one scope must not clobber the other two.
type RiskDoc struct {
	UserID       string     `json:"userId"`
	ProjectID    string     `json:"projectId"`
	ProblemRisks []RiskItem `json:"problemRisks"`
	CoreRisks    []RiskItem `json:"coreRisks"`
	GTMRisks     []RiskItem `json:"gtmRisks"`
	Summary      string     `json:"summary"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// RisksForScope returns the array the given scope owns.
func (d *RiskDoc) RisksForScope(scope RiskScope) []RiskItem {
	switch scope {
	case RiskScopeProblem:
		return d.ProblemRisks
	case RiskScopeCore:
		return d.CoreRisks
	default:
		return d.GTMRisks
	}
}

type RoadmapMilestone struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Metric         string `json:"metric"`
	DueOffsetWeeks int    `json:"dueOffsetWeeks"`
	Status         string `json:"status"`
	Priority       string `json:"priority"`
}

type RoadmapPhase struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Order         int                `json:"order"`
	DurationWeeks int                `json:"durationWeeks"`
	Objective     string             `json:"objective"`
	KeyResult     string             `json:"keyResult"`
	Milestones    []RoadmapMilestone `json:"milestones"`
}

type RoadmapDoc struct {
	UserID          string         `json:"userId"`
	ProjectID       string         `json:"projectId"`
	HorizonMonths   int            `json:"horizonMonths"`
	OverarchingGoal string         `json:"overarchingGoal"`
	Summary         string         `json:"summary"`
	Phases          []RoadmapPhase `json:"phases"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

type TaskItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueInDays   int    `json:"dueInDays,omitempty"`
}

type TaskDoc struct {
	UserID    string     `json:"userId"`
	ProjectID string     `json:"projectId"`
	Tasks     []TaskItem `json:"tasks"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
