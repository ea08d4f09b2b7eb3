package cue

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllCuesHaveInfo(t *testing.T) {
	cues := []Cue{
		MinuteStarted, TenSecondsWarning, ThirtySecondsRemaining, OneMinuteRemaining,
		Countdown3, WorkStarted, RestStarted, SectionComplete, TimeCapReached,
		SectionStarted, SegmentComplete, RoundComplete, NextMovement, Skipped,
		Paused, Resumed, WorkoutComplete,
	}
	for _, c := range cues {
		info, ok := GetInfo(c)
		require.True(t, ok, "missing info for %s", c)
		assert.Equal(t, c, info.Cue)
		assert.NotEmpty(t, info.DisplayName)
	}
	assert.Len(t, AllCues, len(cues))
}

func TestDispatcher_OrderAndFanOut(t *testing.T) {
	d := NewDispatcher(log.New(io.Discard, "", 0))

	var got []Cue
	unregister := d.OnCue(func(c Cue) { got = append(got, c) })
	ch := make(chan Cue, 4)
	d.ListenToCues(ch)

	d.Dispatch(TenSecondsWarning, Countdown3)
	assert.Equal(t, []Cue{TenSecondsWarning, Countdown3}, got)
	assert.Equal(t, TenSecondsWarning, <-ch)
	assert.Equal(t, Countdown3, <-ch)

	unregister()
	d.Dispatch(SectionComplete)
	assert.Len(t, got, 2)
	assert.Equal(t, SectionComplete, <-ch)
}

func TestNewDispatcher_NilLoggerPanics(t *testing.T) {
	assert.Panics(t, func() { NewDispatcher(nil) })
}
