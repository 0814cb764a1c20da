package synthesis

import (
	"context"

	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector is a deterministic stand-in for the synthesis service,
// used with ENABLE_MOCKS for local development and integration tests.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Synthesize(ctx context.Context, req *entity.SynthesizeRequest) (entity.RawDocument, error) {
	ctxzap.Info(ctx, "[MOCK] running synthesis pass", zap.String("mode", string(req.Mode)))

	switch req.Mode {
	case entity.SynthesisCore, entity.SynthesisRefineSolution:
		return m.coreDocument(req), nil
	default:
		return m.downstreamDocument(req), nil
	}
}

func (m *MockConnector) coreDocument(req *entity.SynthesizeRequest) entity.RawDocument {
	problem := req.Intake.Problem
	if problem == "" {
		problem = "Early-stage founders lack structured validation of their assumptions"
	}

	return entity.RawDocument{
		"summary": map[string]any{
			"problem": map[string]any{
				"notes": problem,
				"state": "unclear",
			},
			"solution": map[string]any{
				"notes": "A guided validation workspace that turns intake answers into testable experiments",
				"state": "unvalidated",
			},
		},
		"personas": []any{
			map[string]any{
				"id":          "persona_1",
				"type":        "primary",
				"title":       "First-time founder",
				"description": "Has an idea and savings, no validation experience",
			},
			map[string]any{
				"id":          "persona_2",
				"type":        "secondary",
				"title":       "Side-project builder",
				"description": "Ships nights and weekends, needs fast signal",
			},
		},
		"sections": []any{
			map[string]any{
				"id":    "section_1",
				"kind":  "generic",
				"title": "Problem Landscape",
				"html":  "<p>Most early ideas die from untested assumptions, not from competition.</p>",
			},
		},
		"meta": map[string]any{
			"clarifyingQuestions": []any{
				"How do founders validate assumptions today?",
				"What would make them pay for faster signal?",
			},
		},
	}
}

func (m *MockConnector) downstreamDocument(req *entity.SynthesizeRequest) entity.RawDocument {
	doc := entity.RawDocument{
		"sections": []any{
			map[string]any{
				"id":    "section_1",
				"kind":  "generic",
				"title": "Market Overview",
				"html":  "<p>The validation tooling market is fragmented across surveys, analytics and advisors.</p>",
			},
			map[string]any{
				"id":    "section_2",
				"kind":  "generic",
				"title": "Competitive Dynamics",
				"html":  "<p>Incumbents optimize for enterprises; early founders are underserved.</p>",
			},
		},
		"experiments": []any{
			map[string]any{
				"id":         "exp_1",
				"title":      "Landing page smoke test",
				"hypothesis": "At least 5% of visitors leave an email for early access",
				"metric":     "signup conversion",
				"etaDays":    7,
				"status":     "planned",
			},
			map[string]any{
				"id":         "exp_2",
				"title":      "Ten problem interviews",
				"hypothesis": "7 of 10 founders describe the problem unprompted",
				"metric":     "unprompted mentions",
				"etaDays":    14,
				"status":     "planned",
			},
		},
		"competitors": []any{
			map[string]any{
				"name":        "SurveySprint",
				"positioning": "Fast audience polling",
				"overlap":     "validation surveys",
			},
		},
		"timeline": []any{
			map[string]any{
				"label":   "First validated learning",
				"etaDays": 21,
			},
		},
		"analysis": map[string]any{
			"pest": map[string]any{
				"political":     []any{"No regulatory pressure on validation tooling"},
				"economic":      []any{"Tight funding climate rewards evidence"},
				"social":        []any{"Founder communities normalize early testing"},
				"technological": []any{"LLMs lower research cost dramatically"},
			},
			"swot": map[string]any{
				"strengths":     []any{"Structured methodology", "Speed to signal"},
				"weaknesses":    []any{"Unproven brand"},
				"opportunities": []any{"Accelerator partnerships"},
				"threats":       []any{"DIY spreadsheets"},
			},
		},
		"summary": map[string]any{
			"nextStep": "Run the landing page smoke test before building anything else.",
		},
	}

	if req.GTM {
		doc["summary"].(map[string]any)["gtm"] = map[string]any{
			"strategy":   "Land in founder communities, expand through accelerator batches",
			"channels":   []any{"founder newsletters", "accelerator workshops"},
			"commentary": "Channel economics favor community-led motion over paid acquisition.",
		}
		doc["sections"] = append(doc["sections"].([]any), map[string]any{
			"id":    "section_gtm_1",
			"kind":  "gtm",
			"title": "Go-To-Market Plan",
			"html":  "<p>Start with the communities where the primary persona already gathers.</p>",
		})
	}

	return doc
}

func (m *MockConnector) SynthesizeAgentDoc(ctx context.Context, req *entity.AgentSynthesisRequest) (entity.RawDocument, error) {
	ctxzap.Info(ctx, "[MOCK] synthesizing agent document", zap.String("kind", string(req.Kind)))

	switch req.Kind {
	case entity.AgentKindCoreBusiness:
		return entity.RawDocument{
			"purpose":        "Give early founders evidence before they commit capital",
			"mission":        "Turn startup intuition into tested knowledge",
			"vision":         "A world where no founder builds a year of the wrong thing",
			"strategicFocus": "Speed from idea to validated learning",
			"brandValues":    []any{"evidence", "candor", "momentum"},
			"tagline":        "Validate before you build",
		}, nil
	case entity.AgentKindRoadmap:
		return entity.RawDocument{
			"horizonMonths":   6,
			"overarchingGoal": "Reach 100 founders with a validated core loop",
			"summary":         "Two phases: prove the problem, then prove willingness to pay.",
			"phases": []any{
				map[string]any{
					"id":            "phase_1",
					"name":          "Problem proof",
					"order":         1,
					"durationWeeks": 4,
					"objective":     "Confirm the problem is worth solving",
					"keyResult":     "7 of 10 interviews confirm the pain",
					"milestones": []any{
						map[string]any{
							"id":             "m_1",
							"title":          "Run 10 interviews",
							"metric":         "interviews completed",
							"dueOffsetWeeks": 2,
							"status":         "planned",
							"priority":       "high",
						},
					},
				},
				map[string]any{
					"id":            "phase_2",
					"name":          "Payment proof",
					"order":         2,
					"durationWeeks": 8,
					"objective":     "Confirm willingness to pay",
					"keyResult":     "5 pre-orders collected",
					"milestones": []any{
						map[string]any{
							"id":             "m_2",
							"title":          "Collect 5 pre-orders",
							"metric":         "pre-orders",
							"dueOffsetWeeks": 8,
							"status":         "planned",
							"priority":       "high",
						},
					},
				},
			},
		}, nil
	default:
		return entity.RawDocument{
			"tasks": []any{
				map[string]any{
					"id":          "task_1",
					"title":       "Draft interview script",
					"description": "Cover current workarounds and willingness to pay",
					"category":    "research",
					"status":      "todo",
					"priority":    "high",
					"dueInDays":   3,
				},
				map[string]any{
					"id":          "task_2",
					"title":       "Publish landing page",
					"description": "Single promise, single call to action",
					"category":    "marketing",
					"status":      "todo",
					"priority":    "medium",
					"dueInDays":   7,
				},
			},
		}, nil
	}
}

func (m *MockConnector) SynthesizeRisks(ctx context.Context, req *entity.RiskSynthesisRequest) (*entity.RiskSynthesisResult, error) {
	ctxzap.Info(ctx, "[MOCK] synthesizing risks", zap.String("scope", string(req.Scope)))

	return &entity.RiskSynthesisResult{
		Risks: []entity.RiskItem{
			{
				ID:         "risk_1",
				Scope:      req.Scope,
				Title:      "Problem is a vitamin, not a painkiller",
				Category:   "demand",
				Impact:     4,
				Likelihood: 3,
				Severity:   "high",
				Mitigation: "Interview founders who recently abandoned an idea",
			},
			{
				ID:         "risk_2",
				Scope:      req.Scope,
				Title:      "Primary persona cannot pay",
				Category:   "monetization",
				Impact:     3,
				Likelihood: 3,
				Severity:   "medium",
				Mitigation: "Test pre-orders before building billing",
			},
		},
		Summary: "The dominant risk is demand, not feasibility.",
	}, nil
}

func (m *MockConnector) ChatResearch(ctx context.Context, req *entity.ChatSynthesisRequest) (*entity.ResearchChatResult, error) {
	ctxzap.Info(ctx, "[MOCK] research chat turn")

	return &entity.ResearchChatResult{
		Reply: "I tightened the next step based on your question.",
		Patch: entity.ResearchPatch{
			Summary: map[string]any{
				"nextStep": "Interview three founders from your own network this week.",
			},
		},
	}, nil
}

func (m *MockConnector) ChatIntake(ctx context.Context, req *entity.ChatSynthesisRequest) (*entity.IntakeChatResult, error) {
	ctxzap.Info(ctx, "[MOCK] intake chat turn")

	return &entity.IntakeChatResult{
		Reply: "Noted. Your target region is now part of the project intake.",
		Patch: entity.IntakePatch{
			Intake: map[string]any{"region": "EU"},
			Meta:   map[string]any{"readyForResearch": true},
		},
	}, nil
}
