package entity

// CoreField identifies which part of the core triad an update targets.
type CoreField string

const (
	CoreFieldProblem        CoreField = "problem"
	CoreFieldSolution       CoreField = "solution"
	CoreFieldPersona        CoreField = "persona"
	CoreFieldPersonaPrimary CoreField = "persona_primary"
)

func (f *CoreField) Validate() error {
	switch *f {
	case CoreFieldProblem, CoreFieldSolution, CoreFieldPersona, CoreFieldPersonaPrimary:
		return nil
	default:
		return ErrInvalidParameter
	}
}

// StartResearchRequest is the finalized intake submission.
type StartResearchRequest struct {
	ProjectID string `json:"projectId"`
	Intake
}

// GatePlanStage is one ordered validation stage of the research plan.
type GatePlanStage struct {
	Stage    string   `json:"stage"`
	Evidence []string `json:"evidence"`
}

// GateDecision is the output of the pure gate decision function.
type GateDecision struct {
	NeedProblem  bool            `json:"needProblem"`
	NeedSolution bool            `json:"needSolution"`
	Plan         []GatePlanStage `json:"plan"`
}

type StartResearchResponse struct {
	Gate    GateDecision    `json:"gate"`
	Doc     *ResearchDoc    `json:"doc"`
	Context *ProjectContext `json:"context"`
}

type SaveDraftRequest struct {
	ProjectID string       `json:"projectId"`
	Step      int          `json:"step"`
	Answers   DraftAnswers `json:"answers"`
}

type SaveDraftResponse struct {
	OK    bool   `json:"ok"`
	Draft *Draft `json:"draft"`
}

type DraftResponse struct {
	Step    int          `json:"step"`
	Answers DraftAnswers `json:"answers"`
}

type ResearchResponse struct {
	Doc     *ResearchDoc    `json:"doc"`
	Context *ProjectContext `json:"context"`
}

type UpdateCoreRequest struct {
	ProjectID string    `json:"projectId"`
	Field     CoreField `json:"field"`
	Text      string    `json:"text,omitempty"`
	PersonaID string    `json:"personaId,omitempty"`
	Validate  bool      `json:"validate,omitempty"`
}

type UpdateCoreResponse struct {
	OK      bool            `json:"ok"`
	Doc     *ResearchDoc    `json:"doc"`
	Context *ProjectContext `json:"context"`
}

type AdvanceGatesRequest struct {
	ApproveExperiments  *bool `json:"approveExperiments,omitempty"`
	ApproveProceedToGTM *bool `json:"approveProceedToGTM,omitempty"`
}

type ListProjectsResponse struct {
	Projects []*Project `json:"projects"`
}

type ClarifyRequest struct {
	Answer string `json:"answer"`
}

type GenerateRequest struct {
	ProjectID string `json:"projectId"`
}

type AnalyseRiskRequest struct {
	ProjectID string    `json:"projectId"`
	Scope     RiskScope `json:"scope"`
}

type AnalyseRiskResponse struct {
	OK      bool       `json:"ok"`
	Scope   RiskScope  `json:"scope"`
	Summary string     `json:"summary"`
	Risks   []RiskItem `json:"risks"`
}

// RisksResponse always carries explicit empty arrays; "never generated"
// is a normal state, not an error.
type RisksResponse struct {
	OK           bool       `json:"ok"`
	Summary      string     `json:"summary"`
	ProblemRisks []RiskItem `json:"problemRisks"`
	CoreRisks    []RiskItem `json:"coreRisks"`
	GTMRisks     []RiskItem `json:"gtmRisks"`
}

type CoreBusinessResponse struct {
	OK   bool             `json:"ok"`
	Core *CoreBusinessDoc `json:"core"`
}

type RoadmapResponse struct {
	OK      bool        `json:"ok"`
	Roadmap *RoadmapDoc `json:"roadmap"`
}

type TasksResponse struct {
	OK    bool     `json:"ok"`
	Tasks *TaskDoc `json:"tasks"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

// ChatService selects which document family the chat agent patches.
type ChatService string

const (
	ChatServiceResearch ChatService = "research"
	ChatServiceIntake   ChatService = "intake"
)

func (s *ChatService) Validate() error {
	switch *s {
	case ChatServiceResearch, ChatServiceIntake:
		return nil
	default:
		return ErrInvalidParameter
	}
}

type ChatResponse struct {
	Service ChatService     `json:"service"`
	Reply   string          `json:"reply"`
	Patch   any             `json:"patch"`
	Doc     *ResearchDoc    `json:"doc,omitempty"`
	Context *ProjectContext `json:"context,omitempty"`
}

// ExportFormat selects the rendered research pack format.
type ExportFormat string

const (
	FormatMarkdown ExportFormat = "markdown"
	FormatPDF      ExportFormat = "pdf"
	FormatDOCX     ExportFormat = "docx"
)

func (f *ExportFormat) Validate() error {
	switch *f {
	case FormatMarkdown, FormatPDF, FormatDOCX:
		return nil
	default:
		return ErrInvalidParameter
	}
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
