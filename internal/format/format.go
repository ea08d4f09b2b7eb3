// Package format implements the per-section timing disciplines (EMOM, AMRAP,
// Tabata, For-Time, Rounds). Each variant is a value type: Advance and
// CompleteRound return the next state together with the cues the transition
// produced, so a variant can be driven in tests with plain integers.
package format

import (
	"fmt"

	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/plan"
)

// Outcome tells the engine whether a transition finished the section
type Outcome int

const (
	Continue Outcome = iota
	Finished
)

// State is the format state of the active section.
//
// Advance processes every section-relative second after the last one it has
// seen, up to and including e, so a late tick still fires each boundary cue
// exactly once. Once Finished has been returned, further calls are no-ops.
//
// CompleteRound applies the format's "complete" semantics. handled is false
// when the format uses standard segment completion instead.
//
// Bounded reports whether the section only ends through the format itself
// (its clock or its round count) or an explicit section completion. Segment
// completion and skips inside a bounded section never leave it.
type State interface {
	Format() plan.Format
	Advance(e int) (next State, cues []cue.Cue, outcome Outcome)
	CompleteRound() (next State, cues []cue.Cue, outcome Outcome, handled bool)
	CyclesMovements() bool
	Bounded() bool
	Display() Display
}

// Display holds the discrete fields the presentation layer renders for the
// active format. Fields that do not apply to a format stay zero.
type Display struct {
	Format  plan.Format
	Elapsed int

	CurrentMinute int
	TotalMinutes  int

	HasCountdown     bool
	SecondsRemaining int

	Round           int
	TotalRounds     int
	RoundsCompleted int

	IsWorkPhase           bool
	PhaseSecondsRemaining int

	Finished   bool
	CapReached bool
}

// New initializes the state for a section. It returns nil for un-formatted
// sections.
func New(f plan.Format, params plan.FormatParameters) State {
	switch f {
	case plan.FormatNone:
		return nil
	case plan.FormatEMOM:
		return NewEMOM(params)
	case plan.FormatAMRAP:
		return NewAMRAP(params)
	case plan.FormatTabata:
		return NewTabata(params)
	case plan.FormatForTime:
		return NewForTime(params)
	case plan.FormatRounds:
		return NewRounds(params)
	default:
		panic(fmt.Sprintf("format: unknown format %q", f))
	}
}

// progress tracks which section seconds have been processed
type progress struct {
	last     int
	elapsed  int
	finished bool
}

func newProgress() progress {
	return progress{last: -1}
}

// walk feeds every unprocessed second up to e to step, stopping at the second
// on which step reports the section finished
func (p *progress) walk(e int, step func(sec int) bool) Outcome {
	outcome := Continue
	for sec := p.last + 1; sec <= e && !p.finished; sec++ {
		p.last = sec
		p.elapsed = sec
		if step(sec) {
			p.finished = true
			outcome = Finished
		}
	}
	return outcome
}

// capCue returns the countdown cue for a section-global countdown, if any
func capCue(remaining int) (cue.Cue, bool) {
	switch remaining {
	case 60:
		return cue.OneMinuteRemaining, true
	case 30:
		return cue.ThirtySecondsRemaining, true
	case 10:
		return cue.TenSecondsWarning, true
	case 3:
		return cue.Countdown3, true
	}
	return "", false
}
