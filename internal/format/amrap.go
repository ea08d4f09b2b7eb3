package format

import (
	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/plan"
)

// AMRAP counts rounds against a time cap. Rounds never touch the clock.
type AMRAP struct {
	progress
	capSeconds int
	capped     bool
	rounds     int
}

func NewAMRAP(params plan.FormatParameters) AMRAP {
	c, ok := params.CapSeconds()
	return AMRAP{progress: newProgress(), capSeconds: c, capped: ok}
}

func (s AMRAP) Format() plan.Format { return plan.FormatAMRAP }

func (s AMRAP) Advance(e int) (State, []cue.Cue, Outcome) {
	var cues []cue.Cue
	outcome := s.walk(e, func(sec int) bool {
		if !s.capped {
			return false
		}
		remaining := max(0, s.capSeconds-sec)
		if remaining == 0 {
			cues = append(cues, cue.SectionComplete)
			return true
		}
		if c, ok := capCue(remaining); ok {
			cues = append(cues, c)
		}
		return false
	})
	return s, cues, outcome
}

func (s AMRAP) CompleteRound() (State, []cue.Cue, Outcome, bool) {
	if s.finished {
		return s, nil, Continue, true
	}
	s.rounds++
	return s, []cue.Cue{cue.RoundComplete}, Continue, true
}

func (s AMRAP) CyclesMovements() bool { return true }

func (s AMRAP) Bounded() bool { return true }

func (s AMRAP) Display() Display {
	e := max(s.elapsed, 0)
	d := Display{
		Format:          plan.FormatAMRAP,
		Elapsed:         e,
		Round:           s.rounds + 1,
		RoundsCompleted: s.rounds,
		Finished:        s.finished,
	}
	if s.capped {
		d.HasCountdown = true
		d.SecondsRemaining = max(0, s.capSeconds-e)
	}
	return d
}
