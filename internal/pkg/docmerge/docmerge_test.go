package docmerge

import (
	"reflect"
	"testing"

	"github.com/avara-hq/avara-backend/internal/entity"
)

func sections(ids ...string) []entity.Section {
	out := make([]entity.Section, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.Section{ID: id, Title: "t-" + id, Kind: "generic", HTML: "<p>" + id + "</p>"})
	}
	return out
}

func TestMergeSections_KeyedUnion(t *testing.T) {
	existing := sections("a", "b")
	incoming := []entity.Section{
		{ID: "b", Title: "updated", Kind: "generic", HTML: "<p>new</p>"},
		{ID: "c", Title: "t-c", Kind: "generic", HTML: "<p>c</p>"},
	}

	merged := MergeSections(existing, incoming)

	if len(merged) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(merged))
	}
	if merged[0].ID != "a" || merged[1].ID != "b" || merged[2].ID != "c" {
		t.Fatalf("order must be existing then new: %+v", merged)
	}
	if merged[1].Title != "updated" {
		t.Fatal("incoming must overwrite existing with the same id")
	}
}

func TestMergeSections_Idempotent(t *testing.T) {
	a := sections("x", "y")
	b := []entity.Section{
		{ID: "y", Title: "patched", HTML: "<p>p</p>"},
		{ID: "z", Title: "t-z", HTML: "<p>z</p>"},
	}

	once := MergeSections(a, b)
	twice := MergeSections(once, b)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge must be idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMergeSections_EmptyInputs(t *testing.T) {
	if got := MergeSections(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty, got %+v", got)
	}
	if got := MergeSections(nil, sections("a")); len(got) != 1 {
		t.Fatalf("expected 1, got %+v", got)
	}
}

func TestApplyResearchPatch_MergeNotReplace(t *testing.T) {
	doc := &entity.ResearchDoc{
		Summary: entity.Summary{
			Problem:  entity.SummaryItem{State: entity.SummaryValidated, Notes: "problem notes"},
			Solution: entity.SummaryItem{State: entity.SummaryUnvalidated, Notes: "solution notes"},
			NextStep: "original next step",
			EtaDays:  30,
		},
		Sections: sections("problem_core"),
		Personas: []entity.Persona{{ID: "p1", Type: entity.PersonaPrimary, Title: "Student"}},
		Meta:     entity.DocMeta{NeedMoreInput: true, ClarifyingQuestions: []string{"q1"}},
	}

	err := ApplyResearchPatch(doc, entity.ResearchPatch{
		Summary: map[string]any{"nextStep": "patched next step"},
		Meta:    map[string]any{"needMoreInput": false},
	}, "assistant")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if doc.Summary.NextStep != "patched next step" {
		t.Fatalf("patched key must win: %q", doc.Summary.NextStep)
	}
	if doc.Summary.Problem.Notes != "problem notes" || doc.Summary.EtaDays != 30 {
		t.Fatal("keys absent from the patch must survive a shallow merge")
	}
	if doc.Meta.NeedMoreInput {
		t.Fatal("meta patch must apply")
	}
	if len(doc.Meta.ClarifyingQuestions) != 1 {
		t.Fatal("meta keys absent from the patch must survive")
	}
}

func TestApplyResearchPatch_SectionOverlay(t *testing.T) {
	doc := &entity.ResearchDoc{Sections: sections("problem_core")}

	err := ApplyResearchPatch(doc, entity.ResearchPatch{
		Sections: []entity.Section{{ID: "problem_core", HTML: "<p>rewritten</p>"}},
	}, "assistant")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if doc.Sections[0].HTML != "<p>rewritten</p>" {
		t.Fatal("html must update")
	}
	if doc.Sections[0].Title != "t-problem_core" {
		t.Fatal("fields missing from the patch must keep their value")
	}
}

func TestApplyResearchPatch_PersonaStamping(t *testing.T) {
	doc := &entity.ResearchDoc{
		Personas: []entity.Persona{{ID: "p1", Title: "Student"}},
	}

	err := ApplyResearchPatch(doc, entity.ResearchPatch{
		Personas: []entity.Persona{
			{ID: "p1", Description: "updated description"},
			{ID: "p2", Title: "New segment"},
		},
	}, "assistant")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if len(doc.Personas) != 2 {
		t.Fatalf("expected update + append, got %d personas", len(doc.Personas))
	}
	if doc.Personas[0].Title != "Student" || doc.Personas[0].Description != "updated description" {
		t.Fatalf("persona overlay failed: %+v", doc.Personas[0])
	}
	for _, p := range doc.Personas {
		if p.UpdatedBy != "assistant" || p.UpdatedAt == nil {
			t.Fatalf("patched personas must be stamped: %+v", p)
		}
	}
}

func TestApplyResearchPatch_WholesaleFields(t *testing.T) {
	doc := &entity.ResearchDoc{
		Competitors: []entity.Competitor{{Name: "OldCo"}, {Name: "StaleCo"}},
		Timeline:    []entity.Milestone{{Label: "old", EtaDays: 10}},
	}

	err := ApplyResearchPatch(doc, entity.ResearchPatch{
		Competitors: []entity.Competitor{{Name: "NewCo"}},
		Timeline:    []entity.Milestone{{Label: "m1", EtaDays: 30}, {Label: "m2", EtaDays: 60}},
	}, "assistant")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if len(doc.Competitors) != 1 || doc.Competitors[0].Name != "NewCo" {
		t.Fatalf("competitors must replace wholesale: %+v", doc.Competitors)
	}
	if len(doc.Timeline) != 2 {
		t.Fatalf("timeline must replace wholesale: %+v", doc.Timeline)
	}
}

func TestApplyIntakePatch(t *testing.T) {
	ctx := &entity.ProjectContext{
		State: entity.StateDraft,
		Intake: entity.Intake{
			Problem:  "students lack affordable tutoring",
			Industry: "EdTech",
		},
		Meta: entity.ContextMeta{NeedMoreInput: true},
	}

	err := ApplyIntakePatch(ctx, entity.IntakePatch{
		Intake: map[string]any{"problem": "students in Colombo lack affordable tutoring"},
		Meta:   map[string]any{"readyForResearch": true, "needMoreInput": false},
		State:  "research_ready",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if ctx.Intake.Problem != "students in Colombo lack affordable tutoring" {
		t.Fatalf("intake key must patch: %q", ctx.Intake.Problem)
	}
	if ctx.Intake.Industry != "EdTech" {
		t.Fatal("untouched intake keys must survive")
	}
	if !ctx.Meta.ReadyForResearch || ctx.Meta.NeedMoreInput {
		t.Fatalf("meta must patch: %+v", ctx.Meta)
	}
	if ctx.State != entity.StateResearchReady {
		t.Fatalf("state must replace: %q", ctx.State)
	}
}
