package events

// ChannelEvent provides pub/sub behavior using channels.
// Sends never block: a listener whose buffer is full misses that value.
type ChannelEvent[T any] struct {
	registry[chan<- T, T]
}

// NewChannelEvent creates a new ChannelEvent instance
// sendLastEventOnListen: if true, the last Notify value is pushed to new
// listeners as soon as they register
func NewChannelEvent[T any](sendLastEventOnListen bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{registry: newRegistry[chan<- T, T](sendLastEventOnListen)}
}

// Listen registers a channel to receive values when Notify is invoked
// Returns a deregistration function that can be called to remove the listener
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}

	id, replay := e.add(ch)
	if replay != nil {
		trySend(ch, *replay)
	}
	return e.remover(id)
}

// Notify sends the provided value to all registered channels
func (e *ChannelEvent[T]) Notify(value T) {
	for _, ch := range e.record(value) {
		trySend(ch, value)
	}
}

func trySend[T any](ch chan<- T, value T) {
	select {
	case ch <- value:
	default:
	}
}
