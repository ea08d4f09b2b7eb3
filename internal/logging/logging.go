// Package logging builds the runner's *log.Logger: a rotating log file,
// mirrored line by line into the terminal UI's log pane.
package logging

import (
	"io"
	"log"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lowaak/workout-runtime/internal/config"
)

// UILogBufferSize is the capacity of the channel feeding the UI log pane
const UILogBufferSize = 256

// NewRotatingFile returns a size-rotated log file writer
func NewRotatingFile(cfg config.LogConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// ChannelWriter forwards every write as one string on a channel. Writes never
// block: when the channel is full the line is dropped from the channel (the
// file still has it).
type ChannelWriter struct {
	ch chan<- string
}

func NewChannelWriter(ch chan<- string) *ChannelWriter {
	if ch == nil {
		panic("ChannelWriter: channel cannot be nil")
	}
	return &ChannelWriter{ch: ch}
}

func (w *ChannelWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- string(p):
	default:
	}
	return len(p), nil
}

// New creates the runner logger. Lines go to the rotating file and, when
// uiLines is non-nil, to the UI. The returned closer closes the file.
func New(cfg config.LogConfig, uiLines chan<- string) (*log.Logger, io.Closer) {
	file := NewRotatingFile(cfg)
	var out io.Writer = file
	if uiLines != nil {
		out = io.MultiWriter(file, NewChannelWriter(uiLines))
	}
	return log.New(out, "", log.Ltime|log.Lmicroseconds), file
}
