package events

// CallbackEvent provides pub/sub behavior with type-safe callbacks.
// Callbacks run synchronously on the notifying goroutine, outside any lock,
// so a callback may safely deregister itself.
type CallbackEvent[T any] struct {
	registry[func(T), T]
}

// NewCallbackEvent creates a new CallbackEvent instance
// sendLastEventOnListen: if true, new listeners are called immediately with the
// last Notify value once Notify has been called at least once
func NewCallbackEvent[T any](sendLastEventOnListen bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{registry: newRegistry[func(T), T](sendLastEventOnListen)}
}

// Listen registers a callback function to be called when Notify is invoked
// Returns a deregistration function that can be called to remove the listener
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}

	id, replay := e.add(callback)
	if replay != nil {
		callback(*replay)
	}
	return e.remover(id)
}

// Notify calls all registered listener callbacks with the provided value
func (e *CallbackEvent[T]) Notify(value T) {
	for _, callback := range e.record(value) {
		callback(value)
	}
}
