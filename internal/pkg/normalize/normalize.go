// Package normalize converts raw synthesis output into a schema-valid
// research document shape. This is the resilience boundary between an
// unreliable synthesis call and the persisted document: normalization
// is total — malformed input degrades to conservative defaults, it
// never fails.
package normalize

import (
	"fmt"
	"strconv"

	"github.com/avara-hq/avara-backend/internal/entity"
)

const defaultNextStep = "Review this research with Avara and choose your next high-signal experiment."

// ResearchDoc normalizes raw synthesis output. Only the synthesis-owned
// projection fields are populated; identity, core triad and lifecycle
// fields are the orchestrator's job.
func ResearchDoc(raw entity.RawDocument, projectID string) *entity.ResearchDoc {
	doc := &entity.ResearchDoc{
		ProjectID:   projectID,
		Summary:     normalizeSummary(asMap(raw["summary"])),
		Sections:    normalizeSections(asSlice(raw["sections"])),
		Experiments: normalizeExperiments(asSlice(raw["experiments"])),
		Personas:    normalizePersonas(asSlice(raw["personas"])),
		Competitors: normalizeCompetitors(asSlice(raw["competitors"])),
		Timeline:    normalizeTimeline(asSlice(raw["timeline"])),
		Meta:        normalizeMeta(asMap(raw["meta"])),
		Analysis:    normalizeAnalysis(asMap(raw["analysis"])),
	}
	return doc
}

func normalizeSummary(in map[string]any) entity.Summary {
	prob := asMap(in["problem"])
	sol := asMap(in["solution"])

	s := entity.Summary{
		Problem: entity.SummaryItem{
			State: summaryState(prob["state"], entity.SummaryUnclear),
			Notes: str(prob["notes"]),
		},
		Solution: entity.SummaryItem{
			State: summaryState(sol["state"], entity.SummaryNone),
			Notes: str(sol["notes"]),
		},
		NextStep: strDefault(in["nextStep"], defaultNextStep),
		EtaDays:  toInt(in["etaDays"], 30),
	}

	if gtm := asMap(in["gtm"]); len(gtm) > 0 {
		s.GTM = &entity.GTMSummary{
			Strategy:   str(gtm["strategy"]),
			Summary:    str(gtm["summary"]),
			Channels:   strSlice(gtm["channels"]),
			Confidence: toFloat(gtm["confidence"], 0),
		}
	}
	return s
}

func summaryState(v any, fallback entity.SummaryItemState) entity.SummaryItemState {
	switch entity.SummaryItemState(str(v)) {
	case entity.SummaryValidated:
		return entity.SummaryValidated
	case entity.SummaryUnvalidated:
		return entity.SummaryUnvalidated
	case entity.SummaryUnclear:
		return entity.SummaryUnclear
	case entity.SummaryNone:
		return entity.SummaryNone
	default:
		return fallback
	}
}

func normalizeSections(in []any) []entity.Section {
	sections := make([]entity.Section, 0, len(in))
	for idx, item := range in {
		m := asMap(item)
		sections = append(sections, entity.Section{
			ID:    strDefault(m["id"], fmt.Sprintf("section_%d", idx)),
			Title: strDefault(m["title"], "Untitled"),
			Kind:  strDefault(m["kind"], "generic"),
			HTML:  strDefault(m["html"], "<p>Empty</p>"),
		})
	}
	return sections
}

func normalizeExperiments(in []any) []entity.Experiment {
	experiments := make([]entity.Experiment, 0, len(in))
	for idx, item := range in {
		m := asMap(item)
		experiments = append(experiments, entity.Experiment{
			ID:         strDefault(m["id"], fmt.Sprintf("exp_%d", idx)),
			Title:      strDefault(m["title"], "Experiment"),
			Hypothesis: str(m["hypothesis"]),
			Metric:     str(m["metric"]),
			Status:     strDefault(m["status"], "planned"),
		})
	}
	return experiments
}

func normalizePersonas(in []any) []entity.Persona {
	personas := make([]entity.Persona, 0, len(in))
	for idx, item := range in {
		m := asMap(item)
		personas = append(personas, entity.Persona{
			ID:          strDefault(m["id"], fmt.Sprintf("persona_%d", idx)),
			Type:        entity.PersonaType(strDefault(m["type"], string(entity.PersonaPrimary))),
			Title:       str(m["title"]),
			Description: str(m["description"]),
			Confidence:  toFloat(m["confidence"], 0),
		})
	}
	return personas
}

func normalizeCompetitors(in []any) []entity.Competitor {
	competitors := make([]entity.Competitor, 0, len(in))
	for _, item := range in {
		m := asMap(item)
		competitors = append(competitors, entity.Competitor{
			Name:        str(m["name"]),
			Positioning: str(m["positioning"]),
			Strengths:   str(m["strengths"]),
			Weaknesses:  str(m["weaknesses"]),
			Overlap:     str(m["overlap"]),
		})
	}
	return competitors
}

func normalizeTimeline(in []any) []entity.Milestone {
	timeline := make([]entity.Milestone, 0, len(in))
	for idx, item := range in {
		m := asMap(item)
		timeline = append(timeline, entity.Milestone{
			Label:   strDefault(m["label"], fmt.Sprintf("Milestone %d", idx+1)),
			EtaDays: toInt(m["etaDays"], 0),
		})
	}
	return timeline
}

func normalizeMeta(in map[string]any) entity.DocMeta {
	meta := entity.DocMeta{
		ClarifyingQuestions: strSlice(in["clarifyingQuestions"]),
	}
	if spa := asMap(in["spa"]); len(spa) > 0 {
		meta.SPA = &entity.SPA{
			SizeScore:          toFloat(spa["sizeScore"], 0),
			PainScore:          toFloat(spa["painScore"], 0),
			AccessibilityScore: toFloat(spa["accessibilityScore"], 0),
			Commentary:         str(spa["commentary"]),
		}
	}
	return meta
}

func normalizeAnalysis(in map[string]any) entity.Analysis {
	var analysis entity.Analysis
	if pest := asMap(in["pest"]); len(pest) > 0 {
		analysis.PEST = &entity.PESTAnalysis{
			Political:     str(pest["political"]),
			Economic:      str(pest["economic"]),
			Social:        str(pest["social"]),
			Technological: str(pest["technological"]),
			Environmental: str(pest["environmental"]),
			Legal:         str(pest["legal"]),
		}
	}
	if swot := asMap(in["swot"]); len(swot) > 0 {
		analysis.SWOT = &entity.SWOTAnalysis{
			Strengths:     strSlice(swot["strengths"]),
			Weaknesses:    strSlice(swot["weaknesses"]),
			Opportunities: strSlice(swot["opportunities"]),
			Threats:       strSlice(swot["threats"]),
		}
	}
	return analysis
}

// ---- coercion helpers ----

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func strDefault(v any, fallback string) string {
	if s := str(v); s != "" {
		return s
	}
	return fallback
}

func strSlice(v any) []string {
	items := asSlice(v)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := str(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toInt(v any, fallback int) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}
	return fallback
}

func toFloat(v any, fallback float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	}
	return fallback
}
