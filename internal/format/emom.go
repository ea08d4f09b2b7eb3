package format

import (
	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/plan"
)

// EMOM fires minute boundaries until the declared duration runs out. Without a
// duration it only counts minutes for display.
type EMOM struct {
	progress
	totalSeconds int
	bounded      bool
}

func NewEMOM(params plan.FormatParameters) EMOM {
	total, ok := params.TotalSeconds()
	return EMOM{progress: newProgress(), totalSeconds: total, bounded: ok}
}

func (s EMOM) Format() plan.Format { return plan.FormatEMOM }

func (s EMOM) Advance(e int) (State, []cue.Cue, Outcome) {
	var cues []cue.Cue
	outcome := s.walk(e, func(sec int) bool {
		if !s.bounded {
			return false
		}
		if sec >= s.totalSeconds {
			cues = append(cues, cue.SectionComplete)
			return true
		}
		if sec%60 == 0 {
			cues = append(cues, cue.MinuteStarted)
		}
		switch 60 - sec%60 {
		case 10:
			cues = append(cues, cue.TenSecondsWarning)
		case 3:
			cues = append(cues, cue.Countdown3)
		}
		return false
	})
	return s, cues, outcome
}

func (s EMOM) CompleteRound() (State, []cue.Cue, Outcome, bool) {
	return s, nil, Continue, false
}

func (s EMOM) CyclesMovements() bool { return false }

func (s EMOM) Bounded() bool { return s.bounded }

func (s EMOM) Display() Display {
	e := max(s.elapsed, 0)
	d := Display{
		Format:           plan.FormatEMOM,
		Elapsed:          e,
		CurrentMinute:    e/60 + 1,
		HasCountdown:     true,
		SecondsRemaining: 60 - e%60,
		Finished:         s.finished,
	}
	if s.bounded {
		d.TotalMinutes = s.totalSeconds / 60
		d.CurrentMinute = min(d.CurrentMinute, d.TotalMinutes)
		if s.finished {
			d.SecondsRemaining = 0
		}
	}
	return d
}
