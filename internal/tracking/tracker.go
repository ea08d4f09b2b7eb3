// Package tracking coordinates route recording for run segments. The engine
// never senses location itself; it asks a Tracker through the Shim.
package tracking

import (
	"errors"

	"github.com/lowaak/workout-runtime/internal/plan"
)

var (
	ErrTrackerUnavailable = errors.New("tracker unavailable")
	ErrNoRoute            = errors.New("no route recorded")
)

// Tracker is the location tracking collaborator.
// Implementations are called while the engine holds its lock: they must not
// block for long and must not call back into the engine.
type Tracker interface {
	// IsExternallyTracking reports whether a wearable companion already
	// records the route
	IsExternallyTracking() bool
	StartTracking() error
	StopTracking() error
	RouteSummary() (*plan.RouteSummary, error)
}
