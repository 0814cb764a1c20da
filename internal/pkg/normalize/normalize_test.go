package normalize

import (
	"testing"

	"github.com/avara-hq/avara-backend/internal/entity"
)

func TestResearchDoc_Totality(t *testing.T) {
	// Any malformed input must yield a schema-valid document, never a panic.
	inputs := []entity.RawDocument{
		nil,
		{},
		{"summary": nil, "sections": nil, "personas": nil},
		{"summary": "not a map", "sections": "not a list", "timeline": 42},
		{"summary": map[string]any{"problem": "nope", "etaDays": "soon", "gtm": []any{"x"}}},
		{"sections": []any{nil, 17, "x", map[string]any{}}},
		{"experiments": []any{map[string]any{"title": 3.5, "status": false}}},
		{"personas": []any{map[string]any{"confidence": "high"}}},
		{"analysis": map[string]any{"pest": "x", "swot": map[string]any{"strengths": "oops"}}},
		{"meta": map[string]any{"spa": map[string]any{"sizeScore": "big"}, "clarifyingQuestions": []any{1, nil, "q"}}},
	}

	for i, raw := range inputs {
		doc := ResearchDoc(raw, "proj-1")
		if doc == nil {
			t.Fatalf("input %d: nil doc", i)
		}
		if doc.ProjectID != "proj-1" {
			t.Fatalf("input %d: projectId not set", i)
		}
		if doc.Summary.Problem.State == "" || doc.Summary.Solution.State == "" {
			t.Fatalf("input %d: summary states must never be empty", i)
		}
		if doc.Sections == nil || doc.Experiments == nil || doc.Personas == nil ||
			doc.Competitors == nil || doc.Timeline == nil {
			t.Fatalf("input %d: array fields must default to empty, not nil", i)
		}
	}
}

func TestResearchDoc_Defaults(t *testing.T) {
	doc := ResearchDoc(entity.RawDocument{}, "p")

	if doc.Summary.Problem.State != entity.SummaryUnclear {
		t.Fatalf("problem state default: got %q", doc.Summary.Problem.State)
	}
	if doc.Summary.Solution.State != entity.SummaryNone {
		t.Fatalf("solution state default: got %q", doc.Summary.Solution.State)
	}
	if doc.Summary.EtaDays != 30 {
		t.Fatalf("etaDays default: got %d", doc.Summary.EtaDays)
	}
	if doc.Summary.NextStep == "" {
		t.Fatal("nextStep must have a default")
	}
}

func TestResearchDoc_StateCoercion(t *testing.T) {
	doc := ResearchDoc(entity.RawDocument{
		"summary": map[string]any{
			"problem":  map[string]any{"state": "definitely-maybe", "notes": "n"},
			"solution": map[string]any{"state": "validated"},
		},
	}, "p")

	if doc.Summary.Problem.State != entity.SummaryUnclear {
		t.Fatalf("unknown state must coerce to unclear, got %q", doc.Summary.Problem.State)
	}
	if doc.Summary.Solution.State != entity.SummaryValidated {
		t.Fatalf("allowed state must pass through, got %q", doc.Summary.Solution.State)
	}
}

func TestResearchDoc_PositionalIDs(t *testing.T) {
	doc := ResearchDoc(entity.RawDocument{
		"sections": []any{
			map[string]any{"title": "A"},
			map[string]any{"id": "problem_core", "title": "B"},
			map[string]any{},
		},
	}, "p")

	if doc.Sections[0].ID != "section_0" {
		t.Fatalf("missing id must be synthesized positionally, got %q", doc.Sections[0].ID)
	}
	if doc.Sections[1].ID != "problem_core" {
		t.Fatalf("provided id must survive, got %q", doc.Sections[1].ID)
	}
	if doc.Sections[2].ID != "section_2" {
		t.Fatalf("got %q", doc.Sections[2].ID)
	}
}

func TestResearchDoc_AnalysisPassthrough(t *testing.T) {
	doc := ResearchDoc(entity.RawDocument{
		"analysis": map[string]any{
			"pest": map[string]any{"political": "stable", "economic": "growing"},
			"swot": map[string]any{"strengths": []any{"team", 2, nil}},
		},
	}, "p")

	if doc.Analysis.PEST == nil || doc.Analysis.PEST.Political != "stable" {
		t.Fatalf("pest passthrough failed: %+v", doc.Analysis.PEST)
	}
	if doc.Analysis.SWOT == nil || len(doc.Analysis.SWOT.Strengths) != 2 {
		t.Fatalf("swot strings must keep coercible entries only: %+v", doc.Analysis.SWOT)
	}
}
