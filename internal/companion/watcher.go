package companion

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lowaak/workout-runtime/internal/clock"
	"github.com/lowaak/workout-runtime/internal/events"
	"github.com/lowaak/workout-runtime/internal/go_func_utils"
	"github.com/lowaak/workout-runtime/internal/plan"
	"github.com/lowaak/workout-runtime/internal/tracking"
)

// WatcherConfig holds configuration for a Watcher
type WatcherConfig struct {
	// StaleAfter is how long a sensor may stay silent and still count as tracking
	StaleAfter     time.Duration
	PollInterval   time.Duration
	ConnectTimeout time.Duration
	// Preferences is optional; when set the remembered sensor is tried first
	Preferences *Preferences
}

func (c WatcherConfig) withDefaults() WatcherConfig {
	if c.StaleAfter <= 0 {
		c.StaleAfter = 5 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	return c
}

// Watcher keeps a running sensor connected and reports it as an external
// tracking source. It satisfies tracking.Tracker by delegating route
// recording to a local tracker.
type Watcher struct {
	scanner Scanner
	local   tracking.Tracker
	clock   clock.Clock
	logger  *log.Logger
	config  WatcherConfig

	measurementEvent *events.ChannelEvent[RSCMeasurement]

	mu       sync.Mutex
	device   Device
	latest   *RSCMeasurement
	lastSeen time.Time

	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

var _ tracking.Tracker = (*Watcher)(nil)

// NewWatcher creates a Watcher. local may be nil when the host has no location
// service.
func NewWatcher(scanner Scanner, local tracking.Tracker, clk clock.Clock, logger *log.Logger, config WatcherConfig) *Watcher {
	if scanner == nil {
		panic("Watcher: scanner cannot be nil")
	}
	if clk == nil {
		panic("Watcher: clock cannot be nil")
	}
	if logger == nil {
		panic("Watcher: logger cannot be nil")
	}
	return &Watcher{
		scanner:          scanner,
		local:            local,
		clock:            clk,
		logger:           logger,
		config:           config.withDefaults(),
		measurementEvent: events.NewChannelEvent[RSCMeasurement](true),
		doneChan:         make(chan struct{}),
	}
}

// Start enables the adapter, scans for running sensors and keeps trying to
// connect one in the background
func (w *Watcher) Start() error {
	if err := w.scanner.Enable(); err != nil {
		return fmt.Errorf("enable bluetooth: %w", err)
	}
	w.scanner.StartScan([]string{ServiceUUIDRunningSpeedCadence})

	go_func_utils.SafeGoWG(w.logger, &w.wg, func() {
		ticker := w.clock.NewTicker(w.config.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-w.doneChan:
				return
			case <-ticker.C():
				w.Poll()
			}
		}
	})
	return nil
}

// Poll makes one attempt to connect and subscribe to a running sensor if none
// is currently connected
func (w *Watcher) Poll() {
	w.mu.Lock()
	current := w.device
	w.mu.Unlock()
	if current != nil && current.IsConnected() {
		return
	}
	if current != nil {
		w.logger.Printf("Watcher: lost %s", current.LocalName())
		w.mu.Lock()
		w.device = nil
		w.mu.Unlock()
	}

	for _, d := range w.candidates() {
		if !d.HasServiceUUID(ServiceUUIDRunningSpeedCadence) {
			continue
		}
		if err := w.subscribe(d); err != nil {
			w.logger.Printf("Watcher: %s: %v", d.Address(), err)
			continue
		}
		w.mu.Lock()
		w.device = d
		w.mu.Unlock()
		w.logger.Printf("Watcher: streaming from %s (%s)", d.LocalName(), d.Address())
		if w.config.Preferences != nil {
			w.config.Preferences.SetPreferredSensor(d.Address())
		}
		return
	}
}

// candidates orders scan results with the preferred sensor first
func (w *Watcher) candidates() []Device {
	devices := w.scanner.ScanDevices()
	if w.config.Preferences == nil {
		return devices
	}
	preferred := w.config.Preferences.PreferredSensor()
	if preferred == "" {
		return devices
	}
	ordered := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.Address() == preferred {
			ordered = append(ordered, d)
		}
	}
	for _, d := range devices {
		if d.Address() != preferred {
			ordered = append(ordered, d)
		}
	}
	return ordered
}

func (w *Watcher) subscribe(d Device) error {
	if !d.IsConnected() {
		if err := w.scanner.Connect(d); err != nil {
			return err
		}
		if err := d.WaitForConnection(w.config.ConnectTimeout); err != nil {
			return fmt.Errorf("connection timeout: %w", err)
		}
	}
	return d.EnableNotifications(ServiceUUIDRunningSpeedCadence, CharUUIDRSCMeasurement, w.handleMeasurement)
}

func (w *Watcher) handleMeasurement(buf []byte) {
	m, err := ParseRSCMeasurement(buf)
	if err != nil {
		w.logger.Printf("Watcher: %v", err)
		return
	}
	w.mu.Lock()
	w.latest = &m
	w.lastSeen = w.clock.Now()
	w.mu.Unlock()
	w.measurementEvent.Notify(m)
}

// IsExternallyTracking reports whether a connected sensor has reported
// recently
func (w *Watcher) IsExternallyTracking() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.device == nil || w.latest == nil || !w.device.IsConnected() {
		return false
	}
	return w.clock.Now().Sub(w.lastSeen) <= w.config.StaleAfter
}

func (w *Watcher) lastMeasurement() (RSCMeasurement, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.latest == nil {
		return RSCMeasurement{}, false
	}
	return *w.latest, true
}

// ListenToMeasurements registers a channel to receive sensor measurements.
// Returns a deregistration function.
func (w *Watcher) ListenToMeasurements(ch chan<- RSCMeasurement) func() {
	return w.measurementEvent.Listen(ch)
}

func (w *Watcher) StartTracking() error {
	if w.local == nil {
		return tracking.ErrTrackerUnavailable
	}
	return w.local.StartTracking()
}

func (w *Watcher) StopTracking() error {
	if w.local == nil {
		return nil
	}
	return w.local.StopTracking()
}

func (w *Watcher) RouteSummary() (*plan.RouteSummary, error) {
	if w.local == nil {
		return nil, tracking.ErrTrackerUnavailable
	}
	return w.local.RouteSummary()
}

// Shutdown unsubscribes from the sensor and stops the scanner
func (w *Watcher) Shutdown() {
	w.shutdownOnce.Do(func() {
		close(w.doneChan)
		w.wg.Wait()

		w.mu.Lock()
		d := w.device
		w.device = nil
		w.mu.Unlock()
		if d != nil {
			err := d.DisableNotifications(ServiceUUIDRunningSpeedCadence, CharUUIDRSCMeasurement)
			if err != nil && !errors.Is(err, errNotConnected) {
				w.logger.Printf("Watcher: disable notifications: %v", err)
			}
		}
		w.scanner.Shutdown()
	})
}
