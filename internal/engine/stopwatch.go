package engine

import "time"

// stopwatch measures wall time since a start point, minus any held spans.
// At most one hold is open at a time; hold and release are idempotent.
type stopwatch struct {
	startedAt time.Time
	held      time.Duration
	holdStart time.Time
	holding   bool
}

func newStopwatch(now time.Time) stopwatch {
	return stopwatch{startedAt: now}
}

func (s *stopwatch) elapsed(now time.Time) time.Duration {
	end := now
	if s.holding {
		end = s.holdStart
	}
	return end.Sub(s.startedAt) - s.held
}

func (s *stopwatch) hold(now time.Time) {
	if s.holding {
		return
	}
	s.holding = true
	s.holdStart = now
}

func (s *stopwatch) release(now time.Time) {
	if !s.holding {
		return
	}
	s.held += now.Sub(s.holdStart)
	s.holding = false
}

// restart begins a new measurement, held immediately if keepHeld is set
func (s *stopwatch) restart(now time.Time, keepHeld bool) {
	*s = newStopwatch(now)
	if keepHeld {
		s.hold(now)
	}
}

// wholeSeconds floors d to whole seconds, which is the resolution every format
// boundary is defined in
func wholeSeconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
