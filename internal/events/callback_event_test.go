package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCallbackEvent(t *testing.T) {
	event := NewCallbackEvent[string](false)
	require.NotNil(t, event)
	assert.Equal(t, 0, event.ListenerCount())
	assert.False(t, event.sendLastEventOnListen)

	event2 := NewCallbackEvent[int](true)
	require.NotNil(t, event2)
	assert.True(t, event2.sendLastEventOnListen)
}

func TestCallbackEvent_ListenNotify(t *testing.T) {
	event := NewCallbackEvent[string](false)

	var received []string
	unregister := event.Listen(func(value string) {
		received = append(received, value)
	})
	assert.Equal(t, 1, event.ListenerCount())

	event.Notify("minute-started")
	event.Notify("countdown-3")
	assert.Equal(t, []string{"minute-started", "countdown-3"}, received)

	unregister()
	assert.Equal(t, 0, event.ListenerCount())

	event.Notify("section-complete")
	assert.Len(t, received, 2)
}

func TestCallbackEvent_MultipleListeners(t *testing.T) {
	event := NewCallbackEvent[int](false)

	var received1, received2 []int
	unregister1 := event.Listen(func(value int) { received1 = append(received1, value) })
	unregister2 := event.Listen(func(value int) { received2 = append(received2, value) })
	assert.Equal(t, 2, event.ListenerCount())

	event.Notify(42)
	event.Notify(100)

	assert.Equal(t, []int{42, 100}, received1)
	assert.Equal(t, []int{42, 100}, received2)

	unregister1()
	unregister2()
	assert.Equal(t, 0, event.ListenerCount())
}

func TestCallbackEvent_SendLastEventOnListen(t *testing.T) {
	event := NewCallbackEvent[string](true)

	var early []string
	event.Listen(func(value string) { early = append(early, value) })
	assert.Empty(t, early, "nothing to replay before the first Notify")

	event.Notify("first")

	var late []string
	event.Listen(func(value string) { late = append(late, value) })
	assert.Equal(t, []string{"first"}, late)

	event.Notify("second")
	assert.Equal(t, []string{"first", "second"}, early)
	assert.Equal(t, []string{"first", "second"}, late)
}

func TestCallbackEvent_NoReplayWhenDisabled(t *testing.T) {
	event := NewCallbackEvent[string](false)
	event.Notify("first")

	var received []string
	event.Listen(func(value string) { received = append(received, value) })
	assert.Empty(t, received)

	event.Notify("second")
	assert.Equal(t, []string{"second"}, received)
}

func TestCallbackEvent_ConcurrentAccess(t *testing.T) {
	event := NewCallbackEvent[int](false)

	var wg sync.WaitGroup
	var mu sync.Mutex
	count := 0

	wg.Add(10)
	for i := 0; i < 10; i++ {
		go func() {
			defer wg.Done()
			event.Listen(func(int) {
				mu.Lock()
				count++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, event.ListenerCount())

	wg.Add(5)
	for i := 0; i < 5; i++ {
		go func(value int) {
			defer wg.Done()
			event.Notify(value)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	assert.Equal(t, 50, count)
	mu.Unlock()
}

func TestCallbackEvent_NilCallbackPanics(t *testing.T) {
	event := NewCallbackEvent[string](false)
	assert.Panics(t, func() {
		event.Listen(nil)
	})
}

func TestCallbackEvent_UnregisterDuringNotify(t *testing.T) {
	event := NewCallbackEvent[string](false)

	var received []string
	var unregister func()
	unregister = event.Listen(func(value string) {
		received = append(received, value)
		if value == "unregister" {
			unregister()
		}
	})

	event.Notify("test1")
	event.Notify("unregister")
	event.Notify("test2")

	assert.Equal(t, []string{"test1", "unregister"}, received)
	assert.Equal(t, 0, event.ListenerCount())
}

func TestCallbackEvent_MultipleUnregisterCalls(t *testing.T) {
	event := NewCallbackEvent[string](false)
	unregister := event.Listen(func(string) {})

	unregister()
	unregister()
	assert.Equal(t, 0, event.ListenerCount())
}
