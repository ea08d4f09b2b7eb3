package format

import (
	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/plan"
)

type phase int

const (
	phaseNone phase = iota
	phaseWork
	phaseRest
)

// Tabata alternates work and rest phases for a fixed number of rounds
type Tabata struct {
	progress
	work, rest, rounds int
	phase              phase
}

func NewTabata(params plan.FormatParameters) Tabata {
	work, rest, rounds := params.Tabata()
	return Tabata{progress: newProgress(), work: work, rest: rest, rounds: rounds}
}

func (s Tabata) Format() plan.Format { return plan.FormatTabata }

func (s Tabata) cycle() int { return s.work + s.rest }

func (s Tabata) total() int { return s.cycle() * s.rounds }

// at returns the phase and the seconds left in it at section second e
func (s Tabata) at(e int) (phase, int) {
	into := e % s.cycle()
	if into < s.work {
		return phaseWork, s.work - into
	}
	return phaseRest, s.cycle() - into
}

func (s Tabata) Advance(e int) (State, []cue.Cue, Outcome) {
	var cues []cue.Cue
	outcome := s.walk(e, func(sec int) bool {
		if sec >= s.total() {
			cues = append(cues, cue.SectionComplete)
			return true
		}
		p, remaining := s.at(sec)
		if p != s.phase {
			if p == phaseWork {
				cues = append(cues, cue.WorkStarted)
			} else {
				cues = append(cues, cue.RestStarted)
			}
			s.phase = p
		}
		if remaining == 3 {
			cues = append(cues, cue.Countdown3)
		}
		return false
	})
	return s, cues, outcome
}

func (s Tabata) CompleteRound() (State, []cue.Cue, Outcome, bool) {
	return s, nil, Continue, false
}

func (s Tabata) CyclesMovements() bool { return false }

func (s Tabata) Bounded() bool { return true }

// IsWorkPhase reports whether section second e falls in a work phase
func (s Tabata) IsWorkPhase(e int) bool {
	p, _ := s.at(e)
	return p == phaseWork
}

func (s Tabata) Display() Display {
	e := max(s.elapsed, 0)
	d := Display{
		Format:           plan.FormatTabata,
		Elapsed:          e,
		HasCountdown:     true,
		SecondsRemaining: max(0, s.total()-e),
		TotalRounds:      s.rounds,
		Round:            min(e/s.cycle()+1, s.rounds),
		Finished:         s.finished,
	}
	if !s.finished {
		p, remaining := s.at(e)
		d.IsWorkPhase = p == phaseWork
		d.PhaseSecondsRemaining = remaining
	}
	d.RoundsCompleted = min(e/s.cycle(), s.rounds)
	return d
}
