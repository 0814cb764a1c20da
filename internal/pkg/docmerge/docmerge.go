// Package docmerge applies partial patches onto shared documents.
//
// Every patchable field carries an explicit merge strategy in a schema;
// patch application is driven off that schema rather than per-field
// special cases. Identity-bearing collections (sections, personas)
// merge by id; bulk derived collections (competitors, timeline)
// replace wholesale; summary and meta shallow-merge key by key.
package docmerge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/avara-hq/avara-backend/internal/entity"
)

// Strategy declares how a patched field combines with the existing one.
type Strategy string

const (
	MergeByID    Strategy = "merge_by_id"
	Replace      Strategy = "replace"
	ShallowMerge Strategy = "shallow_merge"
)

// Schema maps patchable field names to their merge strategy.
type Schema map[string]Strategy

// ResearchSchema governs ApplyResearchPatch.
var ResearchSchema = Schema{
	"summary":     ShallowMerge,
	"sections":    MergeByID,
	"personas":    MergeByID,
	"experiments": MergeByID,
	"competitors": Replace,
	"timeline":    Replace,
	"meta":        ShallowMerge,
}

// IntakeSchema governs ApplyIntakePatch.
var IntakeSchema = Schema{
	"intake": ShallowMerge,
	"meta":   ShallowMerge,
	"state":  Replace,
}

// MergeSections is a keyed union: incoming entries overwrite existing
// ones with the same id, new ids append. Ordering is existing insertion
// order followed by new arrivals. Idempotent.
func MergeSections(existing, incoming []entity.Section) []entity.Section {
	merged := make([]entity.Section, len(existing))
	index := make(map[string]int, len(existing))
	for i, s := range existing {
		merged[i] = s
		index[s.ID] = i
	}
	for _, s := range incoming {
		if i, ok := index[s.ID]; ok {
			merged[i] = s
			continue
		}
		index[s.ID] = len(merged)
		merged = append(merged, s)
	}
	return merged
}

// ApplyResearchPatch folds an LLM-produced partial update into the
// document per ResearchSchema. Fields absent from the patch are left
// untouched.
func ApplyResearchPatch(doc *entity.ResearchDoc, patch entity.ResearchPatch, patchedBy string) error {
	if len(patch.Summary) > 0 {
		if err := applyStrategy(ResearchSchema, "summary", func() error {
			return shallowMerge(&doc.Summary, patch.Summary)
		}); err != nil {
			return err
		}
	}
	if len(patch.Meta) > 0 {
		if err := applyStrategy(ResearchSchema, "meta", func() error {
			return shallowMerge(&doc.Meta, patch.Meta)
		}); err != nil {
			return err
		}
	}
	if len(patch.Sections) > 0 {
		if err := applyStrategy(ResearchSchema, "sections", func() error {
			doc.Sections = mergeSectionPatches(doc.Sections, patch.Sections)
			return nil
		}); err != nil {
			return err
		}
	}
	if len(patch.Personas) > 0 {
		if err := applyStrategy(ResearchSchema, "personas", func() error {
			doc.Personas = mergePersonas(doc.Personas, patch.Personas, patchedBy)
			return nil
		}); err != nil {
			return err
		}
	}
	if len(patch.Experiments) > 0 {
		if err := applyStrategy(ResearchSchema, "experiments", func() error {
			doc.Experiments = mergeExperiments(doc.Experiments, patch.Experiments)
			return nil
		}); err != nil {
			return err
		}
	}
	if patch.Competitors != nil {
		if err := applyStrategy(ResearchSchema, "competitors", func() error {
			doc.Competitors = patch.Competitors
			return nil
		}); err != nil {
			return err
		}
	}
	if patch.Timeline != nil {
		if err := applyStrategy(ResearchSchema, "timeline", func() error {
			doc.Timeline = patch.Timeline
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// ApplyIntakePatch folds an LLM-produced partial update into the
// project context per IntakeSchema.
func ApplyIntakePatch(ctx *entity.ProjectContext, patch entity.IntakePatch) error {
	if len(patch.Intake) > 0 {
		if err := applyStrategy(IntakeSchema, "intake", func() error {
			return shallowMerge(&ctx.Intake, patch.Intake)
		}); err != nil {
			return err
		}
	}
	if len(patch.Meta) > 0 {
		if err := applyStrategy(IntakeSchema, "meta", func() error {
			return shallowMerge(&ctx.Meta, patch.Meta)
		}); err != nil {
			return err
		}
	}
	if patch.State != "" {
		if err := applyStrategy(IntakeSchema, "state", func() error {
			ctx.State = entity.ProjectState(patch.State)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func applyStrategy(schema Schema, field string, apply func() error) error {
	if _, ok := schema[field]; !ok {
		return fmt.Errorf("field %q has no merge strategy", field)
	}
	return apply()
}

// shallowMerge overlays patch keys onto dst through its JSON
// representation: present keys win, absent keys survive.
func shallowMerge(dst any, patch map[string]any) error {
	base, err := json.Marshal(dst)
	if err != nil {
		return fmt.Errorf("marshal merge base: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return fmt.Errorf("unmarshal merge base: %w", err)
	}
	for k, v := range patch {
		m[k] = v
	}
	merged, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal merged: %w", err)
	}
	if err := json.Unmarshal(merged, dst); err != nil {
		return fmt.Errorf("apply merged: %w", err)
	}
	return nil
}

// mergeSectionPatches updates by id with a field overlay: a patch that
// only carries html keeps the existing title and kind. Unknown ids
// append.
func mergeSectionPatches(existing, incoming []entity.Section) []entity.Section {
	merged := make([]entity.Section, len(existing))
	index := make(map[string]int, len(existing))
	for i, s := range existing {
		merged[i] = s
		index[s.ID] = i
	}
	for _, s := range incoming {
		if s.ID == "" {
			continue
		}
		if i, ok := index[s.ID]; ok {
			base := merged[i]
			if s.Title != "" {
				base.Title = s.Title
			}
			if s.Kind != "" {
				base.Kind = s.Kind
			}
			if s.HTML != "" {
				base.HTML = s.HTML
			}
			merged[i] = base
			continue
		}
		index[s.ID] = len(merged)
		merged = append(merged, s)
	}
	return merged
}

func mergePersonas(existing, incoming []entity.Persona, patchedBy string) []entity.Persona {
	merged := make([]entity.Persona, len(existing))
	index := make(map[string]int, len(existing))
	for i, p := range existing {
		merged[i] = p
		index[p.ID] = i
	}
	now := time.Now().UTC()
	for _, p := range incoming {
		if p.ID == "" {
			continue
		}
		if i, ok := index[p.ID]; ok {
			base := merged[i]
			if p.Title != "" {
				base.Title = p.Title
			}
			if p.Description != "" {
				base.Description = p.Description
			}
			if p.Type != "" {
				base.Type = p.Type
			}
			if p.Confidence != 0 {
				base.Confidence = p.Confidence
			}
			base.UpdatedBy = patchedBy
			base.UpdatedAt = &now
			merged[i] = base
			continue
		}
		p.UpdatedBy = patchedBy
		p.UpdatedAt = &now
		index[p.ID] = len(merged)
		merged = append(merged, p)
	}
	return merged
}

func mergeExperiments(existing, incoming []entity.Experiment) []entity.Experiment {
	merged := make([]entity.Experiment, len(existing))
	index := make(map[string]int, len(existing))
	for i, e := range existing {
		merged[i] = e
		index[e.ID] = i
	}
	for _, e := range incoming {
		if e.ID == "" {
			continue
		}
		if i, ok := index[e.ID]; ok {
			merged[i] = e
			continue
		}
		index[e.ID] = len(merged)
		merged = append(merged, e)
	}
	return merged
}
