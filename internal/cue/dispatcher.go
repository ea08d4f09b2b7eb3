package cue

import (
	"log"

	"github.com/lowaak/workout-runtime/internal/events"
)

// Dispatcher fans cues out to listeners. Callback listeners are invoked
// synchronously in emission order; channel listeners are fed without blocking.
type Dispatcher struct {
	callbacks *events.CallbackEvent[Cue]
	channels  *events.ChannelEvent[Cue]
	logger    *log.Logger
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(logger *log.Logger) *Dispatcher {
	if logger == nil {
		panic("Dispatcher: logger cannot be nil")
	}
	return &Dispatcher{
		callbacks: events.NewCallbackEvent[Cue](false),
		channels:  events.NewChannelEvent[Cue](false),
		logger:    logger,
	}
}

// Dispatch emits cues in order
func (d *Dispatcher) Dispatch(cues ...Cue) {
	for _, c := range cues {
		d.logger.Printf("Cue: %s", c)
		d.callbacks.Notify(c)
		d.channels.Notify(c)
	}
}

// OnCue registers a callback. Returns a deregistration function.
func (d *Dispatcher) OnCue(callback func(Cue)) func() {
	return d.callbacks.Listen(callback)
}

// ListenToCues registers a channel. A full channel misses cues, so size the
// buffer for a burst (a single tick emits at most a handful).
func (d *Dispatcher) ListenToCues(ch chan<- Cue) func() {
	return d.channels.Listen(ch)
}
