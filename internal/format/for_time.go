package format

import (
	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/plan"
)

// ForTime counts up, optionally against a cap. With declared rounds it shares
// the Rounds semantics; without them the section is a single pass finished by
// standard segment completion.
type ForTime struct {
	progress
	roundCounter
	capSeconds int
	capped     bool
	capReached bool
}

func NewForTime(params plan.FormatParameters) ForTime {
	c, ok := params.CapSeconds()
	return ForTime{
		progress:     newProgress(),
		roundCounter: newRoundCounter(params),
		capSeconds:   c,
		capped:       ok,
	}
}

func (s ForTime) Format() plan.Format { return plan.FormatForTime }

func (s ForTime) Advance(e int) (State, []cue.Cue, Outcome) {
	var cues []cue.Cue
	outcome := s.walk(e, func(sec int) bool {
		if !s.capped {
			return false
		}
		remaining := max(0, s.capSeconds-sec)
		if remaining == 0 {
			cues = append(cues, cue.TimeCapReached)
			s.capReached = true
			return true
		}
		if c, ok := capCue(remaining); ok {
			cues = append(cues, c)
		}
		return false
	})
	return s, cues, outcome
}

func (s ForTime) CompleteRound() (State, []cue.Cue, Outcome, bool) {
	if !s.limited {
		return s, nil, Continue, false
	}
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

func (s ForTime) CyclesMovements() bool { return s.limited }

// Bounded is false for a single pass: finishing its last segment finishes the
// section, cap or not.
func (s ForTime) Bounded() bool { return s.limited }

func (s ForTime) Display() Display {
	e := max(s.elapsed, 0)
	d := Display{Format: plan.FormatForTime, Elapsed: e, Finished: s.finished, CapReached: s.capReached}
	if s.capped {
		d.HasCountdown = true
		d.SecondsRemaining = max(0, s.capSeconds-e)
	}
	if s.limited {
		s.fill(&d)
	}
	return d
}
