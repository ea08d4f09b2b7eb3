package tracking

import (
	"log"

	"github.com/lowaak/workout-runtime/internal/plan"
)

// Shim starts and stops the local tracker around run segments.
// Calls are idempotent and failures are swallowed: a workout must always be
// completable without location data. Not safe for concurrent use; the engine
// serializes access.
type Shim struct {
	tracker Tracker
	logger  *log.Logger

	inRun   bool
	source  plan.RouteSource
	started bool
}

// NewShim creates a Shim. A nil tracker means no location service at all.
func NewShim(tracker Tracker, logger *log.Logger) *Shim {
	if logger == nil {
		panic("Shim: logger cannot be nil")
	}
	return &Shim{tracker: tracker, logger: logger}
}

// EnterRun is called on entry to a run segment. It returns the route source
// in effect for the segment.
func (s *Shim) EnterRun() plan.RouteSource {
	if s.inRun {
		return s.source
	}
	s.inRun = true
	s.source = plan.RouteSourceNone

	if s.tracker == nil {
		s.logger.Println("Shim: no tracker configured, run will have no route")
		return s.source
	}
	if s.tracker.IsExternallyTracking() {
		s.logger.Println("Shim: companion is tracking, not starting local tracker")
		s.source = plan.RouteSourceCompanion
		return s.source
	}
	if err := s.tracker.StartTracking(); err != nil {
		s.logger.Printf("Shim: start tracking failed, continuing without route: %v", err)
		return s.source
	}
	s.started = true
	s.source = plan.RouteSourceLocal
	s.logger.Println("Shim: local tracking started")
	return s.source
}

// LeaveRun is called when a run segment ends for any reason. It stops the
// local tracker if EnterRun started it and returns the recorded route, which
// is nil when nothing was recorded locally.
func (s *Shim) LeaveRun() (*plan.RouteSummary, plan.RouteSource) {
	if !s.inRun {
		return nil, plan.RouteSourceNone
	}
	source := s.source
	s.inRun = false
	s.source = plan.RouteSourceNone
	if !s.started {
		return nil, source
	}
	s.started = false

	if err := s.tracker.StopTracking(); err != nil {
		s.logger.Printf("Shim: stop tracking failed: %v", err)
	}
	summary, err := s.tracker.RouteSummary()
	if err != nil {
		s.logger.Printf("Shim: no route summary: %v", err)
		return nil, source
	}
	summary.Source = plan.RouteSourceLocal
	s.logger.Printf("Shim: route recorded, %.0fm in %v", summary.DistanceMeters, summary.Duration)
	return summary, source
}

// InRun reports whether a run segment is currently open
func (s *Shim) InRun() bool {
	return s.inRun
}

// LocallyTracking reports whether this shim currently owns a running tracker
func (s *Shim) LocallyTracking() bool {
	return s.started
}
