package ui

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/workout-runtime/internal/companion"
	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/engine"
	"github.com/lowaak/workout-runtime/internal/go_func_utils"
	"github.com/lowaak/workout-runtime/internal/plan"
)

// PlanOverview is the static description of the loaded plan
type PlanOverview struct {
	Name              string
	Sections          []plan.SectionInfo
	EstimatedDuration time.Duration
}

// BaseUIView contains the base logic shared by all UI implementations
type BaseUIView struct {
	uiViewImpl   UIViewImpl
	uiModel      *UIModel
	uiController *UIController
	context      context.Context
	cancelFunc   context.CancelFunc
	waitGroup    sync.WaitGroup
	logger       *log.Logger
}

// NewBaseUIViewArg holds the arguments for creating a new BaseUIView
type NewBaseUIViewArg struct {
	UIViewImpl   UIViewImpl
	UIModel      *UIModel
	UIController *UIController
	Overview     PlanOverview
	Logger       *log.Logger
}

// NewBaseUIView creates a new BaseUIView with the given implementation
func NewBaseUIView(args NewBaseUIViewArg) *BaseUIView {
	if args.Logger == nil {
		panic("BaseUIView: logger cannot be nil")
	}
	if args.UIViewImpl == nil {
		panic("BaseUIView: UIViewImpl cannot be nil")
	}
	if args.UIModel == nil {
		panic("BaseUIView: UIModel cannot be nil")
	}
	if args.UIController == nil {
		panic("BaseUIView: UIController cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())

	base := &BaseUIView{
		uiViewImpl:   args.UIViewImpl,
		uiModel:      args.UIModel,
		uiController: args.UIController,
		context:      ctx,
		cancelFunc:   cancel,
		logger:       args.Logger,
	}

	args.UIViewImpl.Initialize(args.UIController)
	args.UIViewImpl.SetupKeyboardHandlers(args.UIController)
	args.UIViewImpl.SetOverview(args.Overview)

	go_func_utils.SafeGoWG(base.logger, &base.waitGroup, func() { base.monitorLogResize() })
	base.updateLogDisplay()

	base.setupEventListeners()

	return base
}

// listen runs handle for every value from ch until the view shuts down
func listen[T any](base *BaseUIView, ch <-chan T, unregister func(), handle func(T)) {
	go_func_utils.SafeGoWG(base.logger, &base.waitGroup, func() {
		defer unregister()
		for {
			select {
			case <-base.context.Done():
				return
			case v, ok := <-ch:
				if !ok {
					return
				}
				handle(v)
			}
		}
	})
}

func (base *BaseUIView) setupEventListeners() {
	logChan := make(chan string, 1)
	listen(base, logChan, base.uiModel.ListenToLog(logChan), func(string) {
		base.updateLogDisplay()
		base.draw()
	})

	snapshotChan := make(chan engine.Snapshot, 16)
	listen(base, snapshotChan, base.uiModel.ListenToSnapshot(snapshotChan), func(snap engine.Snapshot) {
		base.uiViewImpl.UpdateSnapshot(snap)
		base.draw()
	})

	cueChan := make(chan cue.Info, 8)
	listen(base, cueChan, base.uiModel.ListenToCue(cueChan), func(info cue.Info) {
		base.uiViewImpl.ShowCue(info)
		base.draw()
	})

	sensorChan := make(chan companion.RSCMeasurement, 1)
	listen(base, sensorChan, base.uiModel.ListenToSensor(sensorChan), func(reading companion.RSCMeasurement) {
		base.uiViewImpl.UpdateSensor(reading)
		base.draw()
	})

	closeChan := make(chan struct{}, 1)
	listen(base, closeChan, base.uiModel.ListenToCloseApplication(closeChan), func(struct{}) {
		base.uiViewImpl.Stop()
	})
}

func (base *BaseUIView) draw() {
	if err := base.uiViewImpl.Draw(); err != nil {
		base.logger.Printf("BaseUIView: Error drawing: %v", err)
	}
}

func (base *BaseUIView) updateLogDisplay() {
	height := base.uiViewImpl.GetLogViewHeight()
	if height <= 0 {
		return
	}

	logLines := base.uiModel.GetLogTail(height)

	base.uiViewImpl.ClearLogView()
	for _, line := range logLines {
		if err := base.uiViewImpl.WriteLogLine(line); err != nil {
			base.logger.Printf("BaseUIView: Error writing to log view: %v", err)
		}
	}
}

func (base *BaseUIView) monitorLogResize() {
	var lastHeight int
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-base.context.Done():
			return
		case <-ticker.C:
			height := base.uiViewImpl.GetLogViewHeight()
			if height != lastHeight && height > 0 {
				lastHeight = height
				base.updateLogDisplay()
				base.draw()
			}
		}
	}
}

// Shutdown stops all goroutines and waits for them to finish
func (base *BaseUIView) Shutdown() {
	base.logger.Println("BaseUIView: Shutting down")
	base.cancelFunc()
	base.waitGroup.Wait()
	base.logger.Println("BaseUIView: Shutdown complete")
}

// Run starts the UI and blocks until it exits
func (base *BaseUIView) Run() error {
	return base.uiViewImpl.Run()
}
