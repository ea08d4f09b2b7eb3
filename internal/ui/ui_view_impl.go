package ui

import (
	"github.com/lowaak/workout-runtime/internal/companion"
	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/engine"
)

// UIViewImpl defines the interface for framework-specific UI implementations
type UIViewImpl interface {
	// Initialize is called after construction to set up framework-specific widgets
	Initialize(controller *UIController)

	// SetupKeyboardHandlers binds keys to controller actions
	SetupKeyboardHandlers(controller *UIController)

	// Run starts the UI framework and blocks until it exits
	Run() error

	// Stop stops the UI framework
	Stop()

	// Draw refreshes/redraws the UI
	Draw() error

	// --- Log View ---

	GetLogViewHeight() int
	ClearLogView()
	WriteLogLine(line string) error

	// --- Workout ---

	// SetOverview shows the plan's sections and estimated duration
	SetOverview(overview PlanOverview)

	// UpdateSnapshot renders the latest engine snapshot
	UpdateSnapshot(snap engine.Snapshot)

	// ShowCue flashes a fired cue
	ShowCue(info cue.Info)

	// UpdateSensor shows the latest running sensor reading
	UpdateSensor(reading companion.RSCMeasurement)
}
