package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a plan from a YAML (or JSON, which is valid YAML) file
func Load(path string) (*WorkoutPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a plan document
func Parse(data []byte) (*WorkoutPlan, error) {
	p := &WorkoutPlan{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("plan validation: %w", err)
	}
	return p, nil
}

// Validate checks the plan structure without modifying it
func (p *WorkoutPlan) Validate() error {
	sections := p.normalizedSections()
	total := 0
	for i, sec := range sections {
		if len(sec.Segments) == 0 {
			return fmt.Errorf("section %d (%q): %w", i, sec.Label, ErrEmptySection)
		}
		if sec.Kind != "" && !sec.Kind.valid() {
			return fmt.Errorf("section %d (%q) kind %q: %w", i, sec.Label, sec.Kind, ErrUnknownSectionKind)
		}
		if !sec.Format.Valid() {
			return fmt.Errorf("section %d (%q) format %q: %w", i, sec.Label, sec.Format, ErrUnknownFormat)
		}
		if sec.Format != FormatNone && (sec.Kind == SectionWarmup || sec.Kind == SectionCooldown) {
			return fmt.Errorf("section %d (%q): %w", i, sec.Label, ErrFormatNotAllowed)
		}
		for j, seg := range sec.Segments {
			if _, ok := AllSegmentKinds[seg.Kind]; !ok {
				return fmt.Errorf("section %d segment %d (%q) kind %q: %w", i, j, seg.Name, seg.Kind, ErrUnknownSegmentKind)
			}
		}
		total += len(sec.Segments)
	}
	if total == 0 {
		return ErrEmptyPlan
	}

	// When both views are given they must describe the same sequence
	if len(p.Sections) > 0 && len(p.Segments) > 0 {
		if total != len(p.Segments) {
			return fmt.Errorf("%d segments in sections, %d in plan: %w", total, len(p.Segments), ErrSectionMismatch)
		}
		idx := 0
		for _, sec := range p.Sections {
			for _, seg := range sec.Segments {
				flat := p.Segments[idx]
				if flat.Name != seg.Name || flat.Kind != seg.Kind {
					return fmt.Errorf("segment %d: %q/%s vs %q/%s: %w", idx, flat.Name, flat.Kind, seg.Name, seg.Kind, ErrSectionMismatch)
				}
				idx++
			}
		}
	}
	return nil
}

// normalizedSections returns the plan's sections, wrapping a flat segment list
// into one plain section when no sections were given
func (p *WorkoutPlan) normalizedSections() []Section {
	if len(p.Sections) > 0 {
		return p.Sections
	}
	if len(p.Segments) == 0 {
		return nil
	}
	return []Section{{
		Label:    p.Name,
		Kind:     SectionMainSet,
		Segments: p.Segments,
	}}
}
