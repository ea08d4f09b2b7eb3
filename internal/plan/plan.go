// Package plan holds the workout plan model consumed by the engine: ordered
// segments grouped into sections, optionally governed by a timing format.
// Target fields are produced by an external planner and treated as read-only;
// the actual fields on Segment are written by the engine during execution.
package plan

import (
	"errors"
	"time"
)

var (
	ErrEmptyPlan          = errors.New("plan has no segments")
	ErrEmptySection       = errors.New("section has no segments")
	ErrUnknownFormat      = errors.New("unknown format")
	ErrUnknownSegmentKind = errors.New("unknown segment kind")
	ErrUnknownSectionKind = errors.New("unknown section kind")
	ErrSectionMismatch    = errors.New("sections do not partition the segment list")
	ErrFormatNotAllowed   = errors.New("warmup and cooldown sections cannot carry a format")
)

// SegmentKind classifies one unit of work
type SegmentKind string

const (
	SegmentRun        SegmentKind = "run"
	SegmentStation    SegmentKind = "station"
	SegmentRest       SegmentKind = "rest"
	SegmentWarmup     SegmentKind = "warmup"
	SegmentCooldown   SegmentKind = "cooldown"
	SegmentTransition SegmentKind = "transition"
	SegmentStrength   SegmentKind = "strength"
	SegmentFinisher   SegmentKind = "finisher"
)

// SegmentKindInfo contains display information for a segment kind
type SegmentKindInfo struct {
	Kind        SegmentKind
	DisplayName string
	Main        bool // counts toward main completion percentage
}

// AllSegmentKinds defines every supported segment kind
var AllSegmentKinds = map[SegmentKind]SegmentKindInfo{
	SegmentRun:        {Kind: SegmentRun, DisplayName: "Run", Main: true},
	SegmentStation:    {Kind: SegmentStation, DisplayName: "Station", Main: true},
	SegmentRest:       {Kind: SegmentRest, DisplayName: "Rest", Main: false},
	SegmentWarmup:     {Kind: SegmentWarmup, DisplayName: "Warm-up", Main: false},
	SegmentCooldown:   {Kind: SegmentCooldown, DisplayName: "Cool-down", Main: false},
	SegmentTransition: {Kind: SegmentTransition, DisplayName: "Transition", Main: false},
	SegmentStrength:   {Kind: SegmentStrength, DisplayName: "Strength", Main: true},
	SegmentFinisher:   {Kind: SegmentFinisher, DisplayName: "Finisher", Main: true},
}

// IsMain reports whether segments of this kind count as main work
func (k SegmentKind) IsMain() bool {
	return AllSegmentKinds[k].Main
}

// DisplayName returns the human readable name of the kind
func (k SegmentKind) DisplayName() string {
	if info, ok := AllSegmentKinds[k]; ok {
		return info.DisplayName
	}
	return string(k)
}

// SectionKind classifies a group of segments
type SectionKind string

const (
	SectionWarmup   SectionKind = "warmup"
	SectionStrength SectionKind = "strength"
	SectionMainSet  SectionKind = "main_set"
	SectionFinisher SectionKind = "finisher"
	SectionCooldown SectionKind = "cooldown"
)

func (k SectionKind) valid() bool {
	switch k {
	case SectionWarmup, SectionStrength, SectionMainSet, SectionFinisher, SectionCooldown:
		return true
	}
	return false
}

// Format is the timing discipline of a section. The zero value means the
// section is a plain sequential group.
type Format string

const (
	FormatNone    Format = ""
	FormatEMOM    Format = "emom"
	FormatAMRAP   Format = "amrap"
	FormatTabata  Format = "tabata"
	FormatForTime Format = "for_time"
	FormatRounds  Format = "rounds"
)

var formatDisplayNames = map[Format]string{
	FormatNone:    "",
	FormatEMOM:    "EMOM",
	FormatAMRAP:   "AMRAP",
	FormatTabata:  "Tabata",
	FormatForTime: "For Time",
	FormatRounds:  "Rounds",
}

// Valid reports whether f is a known format (including FormatNone)
func (f Format) Valid() bool {
	_, ok := formatDisplayNames[f]
	return ok
}

// DisplayName returns the human readable format name
func (f Format) DisplayName() string {
	return formatDisplayNames[f]
}

// FormatParameters carries the optional, format-dependent parameters.
// Absent values never block execution; each format decides how to degrade.
type FormatParameters struct {
	TotalMinutes      *int `yaml:"total_minutes,omitempty" json:"total_minutes,omitempty"`
	TimeCapMinutes    *int `yaml:"time_cap_minutes,omitempty" json:"time_cap_minutes,omitempty"`
	Rounds            *int `yaml:"rounds,omitempty" json:"rounds,omitempty"`
	WorkSeconds       *int `yaml:"work_seconds,omitempty" json:"work_seconds,omitempty"`
	RestSeconds       *int `yaml:"rest_seconds,omitempty" json:"rest_seconds,omitempty"`
	MovementsPerRound *int `yaml:"movements_per_round,omitempty" json:"movements_per_round,omitempty"`
}

// Tabata defaults
const (
	DefaultTabataWorkSeconds = 20
	DefaultTabataRestSeconds = 10
	DefaultTabataRounds      = 8
)

// Tabata resolves the work/rest/round timing, defaulting each value on its own
func (p FormatParameters) Tabata() (work, rest, rounds int) {
	work, rest, rounds = DefaultTabataWorkSeconds, DefaultTabataRestSeconds, DefaultTabataRounds
	if p.WorkSeconds != nil && *p.WorkSeconds > 0 {
		work = *p.WorkSeconds
	}
	if p.RestSeconds != nil && *p.RestSeconds >= 0 {
		rest = *p.RestSeconds
	}
	if p.Rounds != nil && *p.Rounds > 0 {
		rounds = *p.Rounds
	}
	return work, rest, rounds
}

// positive returns the value behind v when it is present and above zero
func positive(v *int) (int, bool) {
	if v == nil || *v <= 0 {
		return 0, false
	}
	return *v, true
}

// TotalSeconds returns the EMOM duration, if declared
func (p FormatParameters) TotalSeconds() (int, bool) {
	m, ok := positive(p.TotalMinutes)
	return m * 60, ok
}

// CapSeconds returns the AMRAP / For-Time cap, if declared
func (p FormatParameters) CapSeconds() (int, bool) {
	m, ok := positive(p.TimeCapMinutes)
	return m * 60, ok
}

// RoundCount returns the declared round count, if any
func (p FormatParameters) RoundCount() (int, bool) {
	return positive(p.Rounds)
}

// Int returns a pointer to v, for building parameters in code
func Int(v int) *int {
	return &v
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// RouteSource records where a run segment's route data came from
type RouteSource string

const (
	RouteSourceNone      RouteSource = ""
	RouteSourceLocal     RouteSource = "local"
	RouteSourceCompanion RouteSource = "companion"
)

// RouteSummary is the result handed back by a location tracker
type RouteSummary struct {
	DistanceMeters      float64       `json:"distance_meters"`
	Duration            time.Duration `json:"duration"`
	ElevationGainMeters float64       `json:"elevation_gain_meters,omitempty"`
	Points              int           `json:"points"`
	Source              RouteSource   `json:"source"`
}

// PaceSecondsPerKm returns the average pace, or 0 when no distance was covered
func (r RouteSummary) PaceSecondsPerKm() float64 {
	if r.DistanceMeters <= 0 {
		return 0
	}
	return r.Duration.Seconds() / (r.DistanceMeters / 1000)
}

// Segment is one unit of work
type Segment struct {
	Name  string      `yaml:"name" json:"name"`
	Kind  SegmentKind `yaml:"kind" json:"kind"`
	Notes string      `yaml:"notes,omitempty" json:"notes,omitempty"`

	TargetDurationSeconds *int     `yaml:"target_duration_seconds,omitempty" json:"target_duration_seconds,omitempty"`
	TargetDistanceMeters  *float64 `yaml:"target_distance_meters,omitempty" json:"target_distance_meters,omitempty"`
	TargetReps            *int     `yaml:"target_reps,omitempty" json:"target_reps,omitempty"`
	TargetWeightKg        *float64 `yaml:"target_weight_kg,omitempty" json:"target_weight_kg,omitempty"`

	// Written once by the engine when the segment is marked complete
	ActualDuration *time.Duration `yaml:"-" json:"actual_duration,omitempty"`
	StartedAt      *time.Time     `yaml:"-" json:"started_at,omitempty"`
	EndedAt        *time.Time     `yaml:"-" json:"ended_at,omitempty"`
	Route          *RouteSummary  `yaml:"-" json:"route,omitempty"`
	RouteSource    RouteSource    `yaml:"-" json:"route_source,omitempty"`
}

// IsRun reports whether the segment needs location tracking
func (s *Segment) IsRun() bool {
	return s.Kind == SegmentRun
}

// Clone returns a deep copy of the segment
func (s Segment) Clone() Segment {
	out := s
	out.TargetDurationSeconds = cloneInt(s.TargetDurationSeconds)
	out.TargetReps = cloneInt(s.TargetReps)
	out.TargetDistanceMeters = cloneFloat(s.TargetDistanceMeters)
	out.TargetWeightKg = cloneFloat(s.TargetWeightKg)
	if s.ActualDuration != nil {
		d := *s.ActualDuration
		out.ActualDuration = &d
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	if s.Route != nil {
		r := *s.Route
		out.Route = &r
	}
	return out
}

// Section is a named, ordered group of segments
type Section struct {
	Label    string           `yaml:"label" json:"label"`
	Kind     SectionKind      `yaml:"kind" json:"kind"`
	Format   Format           `yaml:"format,omitempty" json:"format,omitempty"`
	Params   FormatParameters `yaml:"params,omitempty" json:"params,omitempty"`
	Segments []Segment        `yaml:"segments" json:"segments"`
}

// WorkoutPlan is the planner's output. Either Sections or Segments (or both,
// when they agree) describe the work.
type WorkoutPlan struct {
	Name     string    `yaml:"name" json:"name"`
	Sections []Section `yaml:"sections,omitempty" json:"sections,omitempty"`
	Segments []Segment `yaml:"segments,omitempty" json:"segments,omitempty"`
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
