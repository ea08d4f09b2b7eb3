package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/workout-runtime/internal/config"
)

func TestChannelWriter_ForwardsAndDrops(t *testing.T) {
	ch := make(chan string, 1)
	w := NewChannelWriter(ch)

	n, err := w.Write([]byte("Engine: paused\n"))
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	n, err = w.Write([]byte("dropped\n"))
	require.NoError(t, err, "a full channel never fails the write")
	assert.Equal(t, 8, n)

	assert.Equal(t, "Engine: paused\n", <-ch)
	select {
	case line := <-ch:
		t.Fatalf("unexpected line %q", line)
	default:
	}
}

func TestNewChannelWriter_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewChannelWriter(nil) })
}

func TestNew_WritesFileAndUI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runner.log")
	ui := make(chan string, 4)
	logger, closer := New(config.LogConfig{File: path, MaxSizeMB: 1}, ui)

	logger.Println("Engine: starting")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Engine: starting")
	assert.Contains(t, <-ui, "Engine: starting")
}

func TestNew_FileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runner.log")
	logger, closer := New(config.LogConfig{File: path}, nil)
	logger.Println("Shim: no tracker configured")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Shim: no tracker configured")
}
