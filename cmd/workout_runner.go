package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"tinygo.org/x/bluetooth"

	"github.com/lowaak/workout-runtime/internal/clock"
	"github.com/lowaak/workout-runtime/internal/companion"
	"github.com/lowaak/workout-runtime/internal/config"
	"github.com/lowaak/workout-runtime/internal/engine"
	"github.com/lowaak/workout-runtime/internal/logging"
	"github.com/lowaak/workout-runtime/internal/plan"
	"github.com/lowaak/workout-runtime/internal/tracking"
	"github.com/lowaak/workout-runtime/internal/ui"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	must("load config", err)
	must("validate config", cfg.Validate())

	uiLogChan := make(chan string, logging.UILogBufferSize)
	logger, logFile := logging.New(cfg.Log, uiLogChan)
	defer logFile.Close()

	p, err := plan.Load(cfg.Plan)
	must("load plan", err)
	layout, err := plan.NewLayout(p)
	must("lay out plan", err)

	clk := clock.NewRealClock()
	var tracker tracking.Tracker = tracking.NewSimulatedTracker(logger, clk, tracking.SimulatedTrackerConfig{
		SpeedMetersPerSecond: cfg.Tracker.SimulatedSpeedMPS,
	})

	var watcher *companion.Watcher
	if cfg.Companion.Enabled {
		watcher = startCompanion(cfg.Companion, tracker, clk, logger)
		if watcher != nil {
			tracker = watcher
		}
	}

	e := engine.New(layout, clk, tracker, logger)
	runner := engine.NewRunner(e, clk, cfg.TickInterval, logger)

	app := tview.NewApplication()
	model := ui.NewUIModel(e, logger, uiLogChan)
	if watcher != nil {
		model.AttachSensor(watcher)
	}
	controller := ui.NewUIController(model, e, runner, logger)
	view := ui.NewBaseUIView(ui.NewBaseUIViewArg{
		UIViewImpl:   ui.NewCursesUIView(logger, app),
		UIModel:      model,
		UIController: controller,
		Overview: ui.PlanOverview{
			Name:              layout.Name(),
			Sections:          e.Sections(),
			EstimatedDuration: e.EstimatedDuration(),
		},
		Logger: logger,
	})

	logger.Printf("Main: loaded %q from %s", layout.Name(), cfg.Plan)
	runErr := view.Run()

	view.Shutdown()
	model.Shutdown()
	runner.Shutdown()
	if watcher != nil {
		watcher.Shutdown()
	}
	must("run UI", runErr)

	e.EndWorkout()
	record, ok := e.Record()
	if !ok {
		return
	}
	fmt.Printf("%s: %s, %s, main %.0f%% (%s)\n", record.PlanName, record.Classification,
		record.TotalElapsed, record.MainCompletionPct, record.ID)
	if cfg.Record.Out != "" {
		must("write record", writeRecord(cfg.Record.Out, record))
		logger.Printf("Main: record written to %s", cfg.Record.Out)
	}
}

// startCompanion starts watching for a running sensor. It returns nil when
// Bluetooth is unavailable; the workout then runs on the local tracker only.
func startCompanion(cfg config.CompanionConfig, local tracking.Tracker, clk clock.Clock, logger *log.Logger) *companion.Watcher {
	prefsPath := cfg.PreferencesFile
	if prefsPath == "" {
		prefsPath = companion.DefaultPreferencesPath()
	}
	scanner := companion.NewBLEScanner(bluetooth.DefaultAdapter, logger, cfg.ScanTimeout)
	watcher := companion.NewWatcher(scanner, local, clk, logger, companion.WatcherConfig{
		Preferences: companion.NewPreferences(prefsPath, logger),
	})
	if err := watcher.Start(); err != nil {
		logger.Printf("Main: companion disabled: %v", err)
		watcher.Shutdown()
		return nil
	}
	return watcher
}

func writeRecord(path string, record engine.Record) error {
	raw, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, raw, 0644)
}

func must(action string, err error) {
	if err != nil {
		panic("failed to " + action + ": " + err.Error())
	}
}
