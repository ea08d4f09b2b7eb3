package format

import (
	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/plan"
)

// roundCounter is shared by Rounds and round-based For-Time sections
type roundCounter struct {
	round    int
	declared int
	limited  bool
}

func newRoundCounter(params plan.FormatParameters) roundCounter {
	n, ok := params.RoundCount()
	return roundCounter{round: 1, declared: n, limited: ok}
}

// next increments the round. It reports true once a declared count is exceeded.
func (r *roundCounter) next() ([]cue.Cue, bool) {
	r.round++
	if r.limited && r.round > r.declared {
		return []cue.Cue{cue.SectionComplete}, true
	}
	return []cue.Cue{cue.RoundComplete}, false
}

func (r roundCounter) fill(d *Display) {
	d.Round = r.round
	d.RoundsCompleted = r.round - 1
	if r.limited {
		d.TotalRounds = r.declared
		d.Round = min(d.Round, r.declared)
	}
}

// Rounds counts manual rounds and never expires on the clock
type Rounds struct {
	progress
	roundCounter
}

func NewRounds(params plan.FormatParameters) Rounds {
	return Rounds{progress: newProgress(), roundCounter: newRoundCounter(params)}
}

func (s Rounds) Format() plan.Format { return plan.FormatRounds }

func (s Rounds) Advance(e int) (State, []cue.Cue, Outcome) {
	s.walk(e, func(int) bool { return false })
	return s, nil, Continue
}

func (s Rounds) CompleteRound() (State, []cue.Cue, Outcome, bool) {
	if s.finished {
		return s, nil, Continue, true
	}
	cues, done := s.next()
	if done {
		s.finished = true
		return s, cues, Finished, true
	}
	return s, cues, Continue, true
}

func (s Rounds) CyclesMovements() bool { return true }

func (s Rounds) Bounded() bool { return true }

func (s Rounds) Display() Display {
	d := Display{Format: plan.FormatRounds, Elapsed: max(s.elapsed, 0), Finished: s.finished}
	s.fill(&d)
	return d
}
