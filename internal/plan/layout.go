package plan

import (
	"fmt"
	"time"
)

// SectionInfo describes one section inside a Layout. Start and End are flat
// segment indices, End exclusive.
type SectionInfo struct {
	Index  int
	Label  string
	Kind   SectionKind
	Format Format
	Params FormatParameters
	Start  int
	End    int
}

// HasFormat reports whether the section is governed by a timing format
func (s SectionInfo) HasFormat() bool {
	return s.Format != FormatNone
}

// Len returns the number of segments in the section
func (s SectionInfo) Len() int {
	return s.End - s.Start
}

// Contains reports whether the flat segment index belongs to the section
func (s SectionInfo) Contains(index int) bool {
	return index >= s.Start && index < s.End
}

// Layout is the executable form of a plan: a private copy of the flat segment
// list plus section boundaries, built once. All accessors panic on an index
// outside the plan since that means the caller has lost track of the structure.
type Layout struct {
	name      string
	segments  []Segment
	sections  []SectionInfo
	sectionOf []int
}

// NewLayout validates p and builds its layout. p itself is never modified.
func NewLayout(p *WorkoutPlan) (*Layout, error) {
	if p == nil {
		return nil, ErrEmptyPlan
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	l := &Layout{name: p.Name}
	for i, sec := range p.normalizedSections() {
		info := SectionInfo{
			Index:  i,
			Label:  sec.Label,
			Kind:   sec.Kind,
			Format: sec.Format,
			Params: sec.Params,
			Start:  len(l.segments),
		}
		for _, seg := range sec.Segments {
			l.segments = append(l.segments, seg.Clone())
			l.sectionOf = append(l.sectionOf, i)
		}
		info.End = len(l.segments)
		l.sections = append(l.sections, info)
	}
	return l, nil
}

// Name returns the plan name
func (l *Layout) Name() string {
	return l.name
}

// SegmentCount returns the number of segments in the flat list
func (l *Layout) SegmentCount() int {
	return len(l.segments)
}

// Segment returns the mutable segment at index
func (l *Layout) Segment(index int) *Segment {
	l.checkSegment(index)
	return &l.segments[index]
}

// Segments returns a deep copy of every segment
func (l *Layout) Segments() []Segment {
	out := make([]Segment, len(l.segments))
	for i, seg := range l.segments {
		out[i] = seg.Clone()
	}
	return out
}

// SectionCount returns the number of sections
func (l *Layout) SectionCount() int {
	return len(l.sections)
}

// Section returns the section at index
func (l *Layout) Section(index int) SectionInfo {
	if index < 0 || index >= len(l.sections) {
		panic(fmt.Sprintf("plan: section index %d out of range [0,%d)", index, len(l.sections)))
	}
	return l.sections[index]
}

// SectionOf returns the section containing the flat segment index
func (l *Layout) SectionOf(index int) SectionInfo {
	l.checkSegment(index)
	return l.sections[l.sectionOf[index]]
}

// IsLast reports whether index is the final segment of the plan
func (l *Layout) IsLast(index int) bool {
	l.checkSegment(index)
	return index == len(l.segments)-1
}

// MainCount returns the number of main segments
func (l *Layout) MainCount() int {
	n := 0
	for _, seg := range l.segments {
		if seg.Kind.IsMain() {
			n++
		}
	}
	return n
}

// EstimatedDuration adds up what the plan is expected to take, using format
// parameters where present and segment target durations otherwise
func (l *Layout) EstimatedDuration() time.Duration {
	var total time.Duration
	for _, sec := range l.sections {
		total += l.estimateSection(sec)
	}
	return total
}

func (l *Layout) estimateSection(sec SectionInfo) time.Duration {
	var targets time.Duration
	for _, seg := range l.segments[sec.Start:sec.End] {
		if seg.TargetDurationSeconds != nil {
			targets += time.Duration(*seg.TargetDurationSeconds) * time.Second
		}
	}

	p := sec.Params
	switch sec.Format {
	case FormatEMOM:
		if secs, ok := p.TotalSeconds(); ok {
			return time.Duration(secs) * time.Second
		}
	case FormatAMRAP:
		if secs, ok := p.CapSeconds(); ok {
			return time.Duration(secs) * time.Second
		}
	case FormatTabata:
		work, rest, rounds := p.Tabata()
		return time.Duration((work+rest)*rounds) * time.Second
	case FormatForTime, FormatRounds:
		if secs, ok := p.CapSeconds(); ok && sec.Format == FormatForTime {
			return time.Duration(secs) * time.Second
		}
		if rounds, ok := p.RoundCount(); ok {
			return targets * time.Duration(rounds)
		}
	}
	return targets
}

func (l *Layout) checkSegment(index int) {
	if index < 0 || index >= len(l.segments) {
		panic(fmt.Sprintf("plan: segment index %d out of range [0,%d)", index, len(l.segments)))
	}
}
