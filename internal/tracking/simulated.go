package tracking

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/workout-runtime/internal/clock"
	"github.com/lowaak/workout-runtime/internal/plan"
)

// SimulatedTrackerConfig holds configuration for a SimulatedTracker
type SimulatedTrackerConfig struct {
	SpeedMetersPerSecond float64
	ClimbMetersPerKm     float64
	// External makes the tracker report a companion as already tracking
	External bool
	// StartErr is returned by StartTracking, to simulate a denied permission
	StartErr error
}

// SimulatedTracker is a Tracker that produces a route at constant speed.
// It stands in for a location service in demos and tests, and records how
// often it was started and stopped.
type SimulatedTracker struct {
	logger *log.Logger
	clock  clock.Clock

	mu        sync.Mutex
	config    SimulatedTrackerConfig
	tracking  bool
	startedAt time.Time
	last      *plan.RouteSummary
	starts    int
	stops     int
}

var _ Tracker = (*SimulatedTracker)(nil)

// NewSimulatedTracker creates a SimulatedTracker
func NewSimulatedTracker(logger *log.Logger, clk clock.Clock, config SimulatedTrackerConfig) *SimulatedTracker {
	if logger == nil {
		panic("SimulatedTracker: logger cannot be nil")
	}
	if clk == nil {
		panic("SimulatedTracker: clock cannot be nil")
	}
	return &SimulatedTracker{logger: logger, clock: clk, config: config}
}

func (t *SimulatedTracker) IsExternallyTracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config.External
}

// SetExternal toggles the simulated companion
func (t *SimulatedTracker) SetExternal(external bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.config.External = external
}

// SetStartErr sets the error returned by subsequent StartTracking calls
func (t *SimulatedTracker) SetStartErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.config.StartErr = err
}

func (t *SimulatedTracker) StartTracking() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.starts++
	if t.config.StartErr != nil {
		return t.config.StartErr
	}
	if t.tracking {
		return nil
	}
	t.tracking = true
	t.startedAt = t.clock.Now()
	t.last = nil
	t.logger.Printf("SimulatedTracker: tracking at %.2f m/s", t.config.SpeedMetersPerSecond)
	return nil
}

func (t *SimulatedTracker) StopTracking() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stops++
	if !t.tracking {
		return nil
	}
	summary := t.summaryLocked()
	t.last = &summary
	t.tracking = false
	t.logger.Printf("SimulatedTracker: stopped after %.0fm", summary.DistanceMeters)
	return nil
}

func (t *SimulatedTracker) RouteSummary() (*plan.RouteSummary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracking {
		summary := t.summaryLocked()
		return &summary, nil
	}
	if t.last == nil {
		return nil, ErrNoRoute
	}
	summary := *t.last
	return &summary, nil
}

func (t *SimulatedTracker) summaryLocked() plan.RouteSummary {
	d := t.clock.Now().Sub(t.startedAt)
	distance := t.config.SpeedMetersPerSecond * d.Seconds()
	return plan.RouteSummary{
		DistanceMeters:      distance,
		Duration:            d,
		ElevationGainMeters: distance / 1000 * t.config.ClimbMetersPerKm,
		Points:              int(d / time.Second),
		Source:              plan.RouteSourceLocal,
	}
}

// Calls returns how many times StartTracking and StopTracking were invoked
func (t *SimulatedTracker) Calls() (starts, stops int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.starts, t.stops
}

// IsTracking reports whether a route is being recorded
func (t *SimulatedTracker) IsTracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}
