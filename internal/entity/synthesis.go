package entity

// SynthesisMode selects which pass the synthesis service runs.
type SynthesisMode string

const (
	// SynthesisCore produces the problem/solution/persona triad plus
	// initial summary and clarifying questions.
	SynthesisCore SynthesisMode = "core"
	// SynthesisRefineSolution regenerates the solution for the current
	// problem and primary persona.
	SynthesisRefineSolution SynthesisMode = "refine_solution"
	// SynthesisDownstream produces PEST/SWOT, experiments, competitors
	// and timeline; with GTM=true it additionally emits GTM sections
	// and a summary.gtm block.
	SynthesisDownstream SynthesisMode = "downstream"
)

// CoreInput is the locked (or locking) triad handed to synthesis.
type CoreInput struct {
	Problem        CoreItem `json:"problem"`
	Solution       CoreItem `json:"solution"`
	PrimaryPersona *Persona `json:"primaryPersona,omitempty"`
}

// SynthesizeRequest is the contract with the synthesis service. The
// response is deliberately loose (RawDocument): the normalizer owns
// turning it into a schema-valid ResearchDoc shape.
type SynthesizeRequest struct {
	Mode   SynthesisMode `json:"mode"`
	GTM    bool          `json:"gtm"`
	Intake Intake        `json:"intake"`
	SPA    *SPA          `json:"spa,omitempty"`
	Core   *CoreInput    `json:"core,omitempty"`
	Region string        `json:"region,omitempty"`
}

// RawDocument is unvalidated synthesis output. It may be missing any
// field, carry wrong types, or be empty.
type RawDocument map[string]any

// IntakeInsights is the enrichment result: SPA scoring, persona
// exploration and clarifying questions. Any part may be absent.
type IntakeInsights struct {
	SPA                 *SPA         `json:"spa,omitempty"`
	Personas            []Persona    `json:"personas,omitempty"`
	Competitors         []Competitor `json:"competitors,omitempty"`
	ClarifyingQuestions []string     `json:"clarifyingQuestions,omitempty"`
}

// IntakeQuality flags a weak problem-path intake and proposes the next
// clarifying questions.
type IntakeQuality struct {
	IsWeak              bool     `json:"isWeak"`
	ClarifyingQuestions []string `json:"clarifyingQuestions"`
}

type ReliabilityRequest struct {
	Intake Intake       `json:"intake"`
	Doc    *ResearchDoc `json:"doc"`
}

// ---- Downstream agent synthesis contracts ----

// AgentKind discriminates which downstream document the synthesis
// service should produce.
type AgentKind string

const (
	AgentKindCoreBusiness AgentKind = "core_business"
	AgentKindRoadmap      AgentKind = "roadmap"
	AgentKindTask         AgentKind = "task"
)

type AgentSynthesisRequest struct {
	Kind        AgentKind    `json:"kind"`
	ResearchDoc *ResearchDoc `json:"researchDoc"`
}

type RiskSynthesisRequest struct {
	Scope       RiskScope    `json:"scope"`
	ResearchDoc *ResearchDoc `json:"researchDoc"`
}

type CoreBusinessResult struct {
	Purpose        string   `json:"purpose"`
	Mission        string   `json:"mission"`
	Vision         string   `json:"vision"`
	StrategicFocus string   `json:"strategicFocus"`
	BrandValues    []string `json:"brandValues"`
	Tagline        string   `json:"tagline"`
}

type RiskSynthesisResult struct {
	Risks   []RiskItem `json:"risks"`
	Summary string     `json:"summary"`
}

type RoadmapResult struct {
	HorizonMonths   int            `json:"horizonMonths"`
	OverarchingGoal string         `json:"overarchingGoal"`
	Summary         string         `json:"summary"`
	Phases          []RoadmapPhase `json:"phases"`
}

type TaskResult struct {
	Tasks []TaskItem `json:"tasks"`
}

// ChatSynthesisRequest carries one founder message plus the document
// the reply should patch.
type ChatSynthesisRequest struct {
	Service     ChatService     `json:"service"`
	Message     string          `json:"message"`
	ResearchDoc *ResearchDoc    `json:"researchDoc,omitempty"`
	Context     *ProjectContext `json:"context,omitempty"`
}

// ---- Chat patch contracts ----

// ResearchPatch is a partial LLM-produced update to a research doc.
// Field semantics are declared by the docmerge schema, not here.
type ResearchPatch struct {
	Summary     map[string]any `json:"summary,omitempty"`
	Sections    []Section      `json:"sections,omitempty"`
	Personas    []Persona      `json:"personas,omitempty"`
	Experiments []Experiment   `json:"experiments,omitempty"`
	Competitors []Competitor   `json:"competitors,omitempty"`
	Timeline    []Milestone    `json:"timeline,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// IntakePatch is a partial LLM-produced update to a project context.
type IntakePatch struct {
	Intake map[string]any `json:"intake,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
	State  string         `json:"state,omitempty"`
}

type ResearchChatResult struct {
	Patch ResearchPatch `json:"patch"`
	Reply string        `json:"reply"`
}

type IntakeChatResult struct {
	Patch IntakePatch `json:"patch"`
	Reply string      `json:"reply"`
}
