package ui

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/workout-runtime/internal/companion"
	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/engine"
	"github.com/lowaak/workout-runtime/internal/events"
	"github.com/lowaak/workout-runtime/internal/go_func_utils"
)

// WorkoutSource is the part of the engine the model observes
type WorkoutSource interface {
	ListenToSnapshot(ch chan<- engine.Snapshot) func()
	ListenToCues(ch chan<- cue.Cue) func()
}

// SensorSource streams readings from a paired running sensor
type SensorSource interface {
	ListenToMeasurements(ch chan<- companion.RSCMeasurement) func()
}

// UIModel holds what the workout screen renders: the latest engine snapshot,
// the latest cue, the latest sensor reading and the log tail
type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	snapshotEvent         *events.ChannelEvent[engine.Snapshot]
	snapshot              engine.Snapshot
	cueEvent              *events.ChannelEvent[cue.Info]
	lastCue               *cue.Info
	sensorEvent           *events.ChannelEvent[companion.RSCMeasurement]
	sensor                *companion.RSCMeasurement
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

const maxLogLines = 1000

func NewUIModel(source WorkoutSource, logger *log.Logger, uiLogChan <-chan string) *UIModel {
	if source == nil {
		panic("UIModel: source cannot be nil")
	}
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		snapshotEvent:         events.NewChannelEvent[engine.Snapshot](true),
		cueEvent:              events.NewChannelEvent[cue.Info](false),
		sensorEvent:           events.NewChannelEvent[companion.RSCMeasurement](true),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	// Register synchronously so nothing published after construction is missed
	snapshotChan := make(chan engine.Snapshot, 16)
	unregisterSnapshots := source.ListenToSnapshot(snapshotChan)
	cueChan := make(chan cue.Cue, 16)
	unregisterCues := source.ListenToCues(cueChan)

	go_func_utils.SafeGoWG(logger, &model.wg, func() {
		defer unregisterSnapshots()
		model.listenToSnapshots(ctx, snapshotChan)
	})
	go_func_utils.SafeGoWG(logger, &model.wg, func() {
		defer unregisterCues()
		model.listenToCues(ctx, cueChan)
	})
	go_func_utils.SafeGoWG(logger, &model.wg, func() { model.readFromLogChannel(ctx, uiLogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log lines
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToSnapshot registers a channel to receive workout snapshots
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToSnapshot(ch chan<- engine.Snapshot) func() {
	return m.snapshotEvent.Listen(ch)
}

// GetSnapshot returns the latest snapshot
func (m *UIModel) GetSnapshot() engine.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// ListenToCue registers a channel to receive cues as they fire
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToCue(ch chan<- cue.Info) func() {
	return m.cueEvent.Listen(ch)
}

// GetLastCue returns the most recent cue, if any
func (m *UIModel) GetLastCue() (cue.Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastCue == nil {
		return cue.Info{}, false
	}
	return *m.lastCue, true
}

// AttachSensor starts following a running sensor's readings until Shutdown
func (m *UIModel) AttachSensor(source SensorSource) {
	if source == nil {
		panic("UIModel: sensor source cannot be nil")
	}
	sensorChan := make(chan companion.RSCMeasurement, 4)
	unregister := source.ListenToMeasurements(sensorChan)
	go_func_utils.SafeGoWG(m.logger, &m.wg, func() {
		defer unregister()
		m.listenToSensor(m.ctx, sensorChan)
	})
	m.logger.Println("UIModel: following running sensor")
}

// ListenToSensor registers a channel to receive sensor readings
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToSensor(ch chan<- companion.RSCMeasurement) func() {
	return m.sensorEvent.Listen(ch)
}

// GetSensorReading returns the latest sensor reading, if any
func (m *UIModel) GetSensorReading() (companion.RSCMeasurement, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sensor == nil {
		return companion.RSCMeasurement{}, false
	}
	return *m.sensor, true
}

func (m *UIModel) listenToSensor(ctx context.Context, ch <-chan companion.RSCMeasurement) {
	for {
		select {
		case <-ctx.Done():
			return
		case reading, ok := <-ch:
			if !ok {
				return
			}
			m.mu.Lock()
			m.sensor = &reading
			m.mu.Unlock()

			m.sensorEvent.Notify(reading)
		}
	}
}

// listenToSnapshots keeps the newest snapshot. A replay on registration can
// repeat one already seen, so versions that are not newer are dropped.
func (m *UIModel) listenToSnapshots(ctx context.Context, ch <-chan engine.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			m.mu.Lock()
			if snap.Version <= m.snapshot.Version {
				m.mu.Unlock()
				continue
			}
			m.snapshot = snap
			m.mu.Unlock()

			m.snapshotEvent.Notify(snap)
		}
	}
}

func (m *UIModel) listenToCues(ctx context.Context, ch <-chan cue.Cue) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-ch:
			if !ok {
				return
			}
			info, found := cue.GetInfo(c)
			if !found {
				info = cue.Info{Cue: c, DisplayName: string(c)}
			}
			m.mu.Lock()
			m.lastCue = &info
			m.mu.Unlock()

			m.cueEvent.Notify(info)
		}
	}
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}
	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}
	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
