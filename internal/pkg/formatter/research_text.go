package formatter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/avara-hq/avara-backend/internal/entity"
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// stripHTML flattens section markup into plain text.
func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

// RenderResearchText flattens a research pack into plain text suitable
// for any of the export formatters.
func RenderResearchText(doc *entity.ResearchDoc) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Problem (%s): %s\n", doc.Summary.Problem.State, doc.Core.Problem.Text)
	fmt.Fprintf(&b, "Solution (%s): %s\n", doc.Summary.Solution.State, doc.Core.Solution.Text)
	fmt.Fprintf(&b, "Next step: %s\n\n", doc.Summary.NextStep)

	if gtm := doc.Summary.GTM; gtm != nil {
		b.WriteString("Go-To-Market\n")
		fmt.Fprintf(&b, "  Strategy: %s\n", gtm.Strategy)
		if len(gtm.Channels) > 0 {
			fmt.Fprintf(&b, "  Channels: %s\n", strings.Join(gtm.Channels, ", "))
		}
		b.WriteString("\n")
	}

	if len(doc.Personas) > 0 {
		b.WriteString("Personas\n")
		for _, p := range doc.Personas {
			marker := ""
			if p.ID == doc.Core.PersonaPrimaryID {
				marker = " (primary)"
			}
			fmt.Fprintf(&b, "  - %s%s: %s\n", p.Title, marker, p.Description)
		}
		b.WriteString("\n")
	}

	for _, s := range doc.Sections {
		fmt.Fprintf(&b, "%s\n%s\n\n", s.Title, stripHTML(s.HTML))
	}

	if len(doc.Experiments) > 0 {
		b.WriteString("Experiments\n")
		for _, e := range doc.Experiments {
			fmt.Fprintf(&b, "  - %s: %s (metric: %s, status: %s)\n", e.Title, e.Hypothesis, e.Metric, e.Status)
		}
		b.WriteString("\n")
	}

	if len(doc.Competitors) > 0 {
		b.WriteString("Competitors\n")
		for _, c := range doc.Competitors {
			fmt.Fprintf(&b, "  - %s: %s\n", c.Name, c.Positioning)
		}
		b.WriteString("\n")
	}

	if len(doc.Timeline) > 0 {
		b.WriteString("Timeline\n")
		for _, m := range doc.Timeline {
			fmt.Fprintf(&b, "  - %s (~%d days)\n", m.Label, m.EtaDays)
		}
		b.WriteString("\n")
	}

	if a := doc.Analysis.SWOT; a != nil {
		b.WriteString("SWOT\n")
		fmt.Fprintf(&b, "  Strengths: %s\n", strings.Join(a.Strengths, "; "))
		fmt.Fprintf(&b, "  Weaknesses: %s\n", strings.Join(a.Weaknesses, "; "))
		fmt.Fprintf(&b, "  Opportunities: %s\n", strings.Join(a.Opportunities, "; "))
		fmt.Fprintf(&b, "  Threats: %s\n\n", strings.Join(a.Threats, "; "))
	}

	if r := doc.Meta.Reliability; r != nil {
		fmt.Fprintf(&b, "Reliability score: %.2f\n", r.ReliabilityScore)
		for _, c := range r.Concerns {
			fmt.Fprintf(&b, "  Concern: %s\n", c)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
