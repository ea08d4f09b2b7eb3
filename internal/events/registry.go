package events

import "sync"

// registry holds the listener bookkeeping shared by ChannelEvent and CallbackEvent.
// L is the listener type (a channel or a callback), T the event value type.
type registry[L any, T any] struct {
	mu                    sync.RWMutex
	listeners             map[uint64]L
	nextID                uint64
	sendLastEventOnListen bool
	lastEvent             *T
	hasNotified           bool
}

func newRegistry[L any, T any](sendLastEventOnListen bool) registry[L, T] {
	return registry[L, T]{
		listeners:             make(map[uint64]L),
		sendLastEventOnListen: sendLastEventOnListen,
	}
}

// add registers a listener and returns its id plus a copy of the last event
// when it should be replayed to the new listener
func (r *registry[L, T]) add(listener L) (uint64, *T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.listeners[id] = listener

	if !r.sendLastEventOnListen || !r.hasNotified || r.lastEvent == nil {
		return id, nil
	}
	replay := new(T)
	*replay = *r.lastEvent
	return id, replay
}

// remover returns an idempotent deregistration function for id
func (r *registry[L, T]) remover(id uint64) func() {
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// record stores value as the last event (when enabled) and returns a copy of the
// listeners so they can be invoked outside the lock
func (r *registry[L, T]) record(value T) []L {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sendLastEventOnListen {
		if r.lastEvent == nil {
			r.lastEvent = new(T)
		}
		*r.lastEvent = value
		r.hasNotified = true
	}

	result := make([]L, 0, len(r.listeners))
	for _, l := range r.listeners {
		result = append(result, l)
	}
	return result
}

// ListenerCount returns the current number of registered listeners
func (r *registry[L, T]) ListenerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}
