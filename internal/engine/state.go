package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/lowaak/workout-runtime/internal/format"
	"github.com/lowaak/workout-runtime/internal/plan"
)

// Phase is the coarse execution phase. Pause is tracked separately and only
// applies while Running.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseRunning
	PhaseAwaitingReady
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "Not started"
	case PhaseRunning:
		return "Running"
	case PhaseAwaitingReady:
		return "Awaiting ready"
	case PhaseComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Classification tells downstream collaborators how to treat a finished session
type Classification string

const (
	ClassificationNone    Classification = ""
	ClassificationFull    Classification = "full"
	ClassificationPartial Classification = "partial"
)

// Thresholds for treating a workout with missing main work as full
const (
	FullCompletionPct        = 75.0
	FullCompletionMinElapsed = 300 * time.Second
)

// Classify classifies a workout that was ended early, or that reached its end
// with main work skipped, from its main completion percentage and total
// elapsed time
func Classify(mainCompletionPct float64, totalElapsed time.Duration) Classification {
	if mainCompletionPct >= FullCompletionPct && totalElapsed >= FullCompletionMinElapsed {
		return ClassificationFull
	}
	return ClassificationPartial
}

// Snapshot is the read-model handed to the presentation layer after every
// tick and operation. Version increases with each snapshot built.
type Snapshot struct {
	Version  uint64
	Phase    Phase
	Paused   bool
	PlanName string

	SegmentIndex int
	SegmentCount int
	Segment      plan.Segment
	Section      plan.SectionInfo
	SectionCount int
	// NextSection is set while awaiting ready and another section follows
	NextSection *plan.SectionInfo

	TotalElapsed   time.Duration
	SectionElapsed time.Duration
	SegmentElapsed time.Duration

	// Format is nil for un-formatted sections
	Format *format.Display
	// LastRoute is the route of the most recently finished tracked run
	LastRoute *plan.RouteSummary

	CompletedMain     int
	TotalMain         int
	MainCompletionPct float64

	Classification Classification
}

// SectionResult summarizes one section that was entered
type SectionResult struct {
	Index            int              `json:"index"`
	Label            string           `json:"label"`
	Kind             plan.SectionKind `json:"kind"`
	Format           plan.Format      `json:"format,omitempty"`
	Elapsed          time.Duration    `json:"elapsed"`
	RoundsCompleted  int              `json:"rounds_completed,omitempty"`
	FinishedByFormat bool             `json:"finished_by_format"`
	CapReached       bool             `json:"cap_reached,omitempty"`

	closed bool
}

// Record is the completed workout, available once the engine is complete
type Record struct {
	ID       uuid.UUID `json:"id"`
	PlanName string    `json:"plan_name"`

	StartedAt    time.Time     `json:"started_at"`
	EndedAt      time.Time     `json:"ended_at"`
	TotalElapsed time.Duration `json:"total_elapsed"`

	Segments  []plan.Segment  `json:"segments"`
	Completed []int           `json:"completed"`
	Skipped   []int           `json:"skipped,omitempty"`
	Sections  []SectionResult `json:"sections"`

	CompletedMain     int     `json:"completed_main"`
	TotalMain         int     `json:"total_main"`
	MainCompletionPct float64 `json:"main_completion_pct"`

	Classification Classification      `json:"classification"`
	EndedEarly     bool                `json:"ended_early"`
	Routes         []plan.RouteSummary `json:"routes,omitempty"`
}
