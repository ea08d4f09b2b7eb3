package engine

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/workout-runtime/internal/clock"
	"github.com/lowaak/workout-runtime/internal/go_func_utils"
)

// Runner drives an Engine from a ticker on its own goroutine
type Runner struct {
	engine   *Engine
	clock    clock.Clock
	interval time.Duration
	logger   *log.Logger

	startOnce    sync.Once
	doneChan     chan struct{} // Closed to signal shutdown
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewRunner creates a Runner. interval defaults to one second.
func NewRunner(engine *Engine, clk clock.Clock, interval time.Duration, logger *log.Logger) *Runner {
	if engine == nil {
		panic("Runner: engine cannot be nil")
	}
	if clk == nil {
		panic("Runner: clock cannot be nil")
	}
	if logger == nil {
		panic("Runner: logger cannot be nil")
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Runner{
		engine:   engine,
		clock:    clk,
		interval: interval,
		logger:   logger,
		doneChan: make(chan struct{}),
	}
}

// Start starts the workout and the tick loop. Only the first call has effect.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		ticker := r.clock.NewTicker(r.interval)
		r.engine.Start()
		go_func_utils.SafeGoWG(r.logger, &r.wg, func() { r.runLoop(ticker) })
	})
}

func (r *Runner) runLoop(ticker clock.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-r.doneChan:
			r.logger.Println("Runner: goroutine exiting")
			return
		case <-ticker.C():
			r.engine.Tick()
		}
	}
}

// Shutdown stops the tick loop. Safe to call multiple times.
func (r *Runner) Shutdown() {
	r.shutdownOnce.Do(func() {
		r.logger.Println("Runner: shutting down")
		close(r.doneChan)
		r.wg.Wait()
	})
}
