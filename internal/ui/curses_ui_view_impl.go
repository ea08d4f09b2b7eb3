package ui

import (
	"fmt"
	"log"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/workout-runtime/internal/companion"
	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/engine"
	"github.com/lowaak/workout-runtime/internal/plan"
)

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger *log.Logger
	app    *tview.Application

	mainFlex *tview.Flex // workout column on the left, logs on the right

	workoutPanel  *tview.TextView
	sectionsPanel *tview.TextView
	cueBanner     *tview.TextView
	sensorLine    *tview.TextView
	keyHelp       *tview.TextView
	logView       *tview.TextView

	mu       sync.Mutex
	overview PlanOverview
}

func NewCursesUIView(logger *log.Logger, app *tview.Application) *CursesUIViewImpl {
	if logger == nil {
		panic("CursesUIViewImpl: logger cannot be nil")
	}
	if app == nil {
		panic("CursesUIViewImpl: app cannot be nil")
	}
	return &CursesUIViewImpl{logger: logger, app: app}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// No SetChangedFunc with app.Draw(): it can hang during shutdown.
	// BaseUIView draws after every update.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.workoutPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.workoutPanel.SetBorder(true).SetTitle(" Workout ")

	ui.sectionsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.sectionsPanel.SetBorder(true).SetTitle(" Sections ")

	ui.cueBanner = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.cueBanner.SetBorder(true)

	ui.sensorLine = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.sensorLine.SetText(formatSensor(nil))

	ui.keyHelp = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetWrap(true)
	ui.keyHelp.SetText(formatKeyHelp())

	workoutColumn := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.keyHelp, 2, 0, false).
		AddItem(ui.cueBanner, 3, 0, false).
		AddItem(ui.sensorLine, 1, 0, false).
		AddItem(ui.workoutPanel, 0, 3, true).
		AddItem(ui.sectionsPanel, 0, 1, false)

	ui.mainFlex = tview.NewFlex().
		AddItem(workoutColumn, 0, 1, true).
		AddItem(ui.logView, 0, 1, false)
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEscape:
			controller.OnEscapeKey()
			return nil
		case tcell.KeyEnter:
			controller.Perform(ActionComplete)
			return nil
		case tcell.KeyCtrlC:
			controller.Perform(ActionQuit)
			return nil
		case tcell.KeyRune:
			if action, ok := GetActionByKey(event.Rune()); ok {
				controller.Perform(action)
				return nil
			}
		}
		return event
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, tview.Escape(line))
	return err
}

// SetOverview shows the plan before it starts
func (ui *CursesUIViewImpl) SetOverview(overview PlanOverview) {
	ui.mu.Lock()
	ui.overview = overview
	ui.mu.Unlock()

	ui.workoutPanel.SetText(formatOverview(overview) + formatWorkoutPanel(engine.Snapshot{}))
	ui.sectionsPanel.SetText(formatSectionList(overview.Sections, 0, engine.PhaseNotStarted))
}

// UpdateSnapshot renders the latest engine snapshot
func (ui *CursesUIViewImpl) UpdateSnapshot(snap engine.Snapshot) {
	ui.mu.Lock()
	sections := ui.overview.Sections
	ui.mu.Unlock()

	ui.workoutPanel.SetText(formatWorkoutPanel(snap))
	ui.sectionsPanel.SetText(formatSectionList(sections, snap.Section.Index, snap.Phase))
	ui.workoutPanel.SetTitle(fmt.Sprintf(" %s ", snap.Phase))
	if snap.Phase == engine.PhaseAwaitingReady {
		ui.workoutPanel.SetBorderColor(tcell.ColorGreen)
	} else {
		ui.workoutPanel.SetBorderColor(tview.Styles.BorderColor)
	}
	if seg := snap.Segment; seg.Kind == plan.SegmentRest {
		ui.workoutPanel.SetTitleColor(tcell.ColorGreen)
	} else {
		ui.workoutPanel.SetTitleColor(tview.Styles.TitleColor)
	}
}

// ShowCue flashes a fired cue in the banner
func (ui *CursesUIViewImpl) ShowCue(info cue.Info) {
	ui.cueBanner.SetText(formatCue(info))
}

// UpdateSensor shows the latest running sensor reading
func (ui *CursesUIViewImpl) UpdateSensor(reading companion.RSCMeasurement) {
	ui.sensorLine.SetText(formatSensor(&reading))
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.app.SetFocus(ui.workoutPanel)
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}
