package ui

import (
	"log"

	"github.com/lowaak/workout-runtime/internal/engine"
)

// Workout is the set of engine operations the controller drives
type Workout interface {
	Pause() bool
	Resume() bool
	CompleteCurrentSegment() bool
	SkipCurrentSegment() bool
	AdvanceMovement() bool
	CompleteSection() bool
	ConfirmReadyForNextSection() bool
	EndWorkout() bool
	Snapshot() engine.Snapshot
}

// Starter starts the workout together with its tick loop
type Starter interface {
	Start()
}

// UIController turns key presses into engine operations
type UIController struct {
	model   *UIModel
	workout Workout
	starter Starter
	logger  *log.Logger
}

// NewUIController creates a new UIController with the given dependencies
func NewUIController(model *UIModel, workout Workout, starter Starter, logger *log.Logger) *UIController {
	if model == nil {
		panic("UIController: model cannot be nil")
	}
	if workout == nil {
		panic("UIController: workout cannot be nil")
	}
	if starter == nil {
		panic("UIController: starter cannot be nil")
	}
	if logger == nil {
		panic("UIController: logger cannot be nil")
	}
	return &UIController{model: model, workout: workout, starter: starter, logger: logger}
}

// Perform runs the operation bound to action
func (c *UIController) Perform(action Action) {
	switch action {
	case ActionTogglePause:
		c.TogglePause()
	case ActionComplete:
		c.report("Done", c.workout.CompleteCurrentSegment())
	case ActionSkip:
		c.report("Skip", c.workout.SkipCurrentSegment())
	case ActionNextMovement:
		c.report("Next movement", c.workout.AdvanceMovement())
	case ActionFinishSection:
		c.report("Finish section", c.workout.CompleteSection())
	case ActionReady:
		c.report("Ready", c.workout.ConfirmReadyForNextSection())
	case ActionEnd:
		c.report("End workout", c.workout.EndWorkout())
	case ActionQuit:
		c.Quit()
	default:
		c.logger.Printf("UIController: unknown action %d", action)
	}
}

// TogglePause starts the workout, pauses or resumes it. At a section gate it
// confirms readiness.
func (c *UIController) TogglePause() {
	snap := c.workout.Snapshot()
	switch snap.Phase {
	case engine.PhaseNotStarted:
		c.starter.Start()
	case engine.PhaseRunning:
		if snap.Paused {
			c.report("Resume", c.workout.Resume())
		} else {
			c.report("Pause", c.workout.Pause())
		}
	case engine.PhaseAwaitingReady:
		c.report("Ready", c.workout.ConfirmReadyForNextSection())
	default:
		c.logger.Printf("UIController: workout is complete - press q to quit")
	}
}

// OnEscapeKey ends a workout in progress, or closes the app once it is complete
func (c *UIController) OnEscapeKey() {
	if c.workout.Snapshot().Phase == engine.PhaseComplete {
		c.model.RequestCloseApplication()
		return
	}
	c.report("End workout", c.workout.EndWorkout())
}

// Quit ends the workout if it is still going and closes the app
func (c *UIController) Quit() {
	if c.workout.Snapshot().Phase != engine.PhaseComplete {
		c.workout.EndWorkout()
	}
	c.model.RequestCloseApplication()
}

func (c *UIController) report(name string, applied bool) {
	if !applied {
		c.logger.Printf("UIController: %s not available right now", name)
	}
}
