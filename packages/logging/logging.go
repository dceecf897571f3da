// Package logging builds the structured logger glint writes to its log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the file logger.
type Options struct {
	File       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// New returns a JSON logger writing to a size-rotated file. The returned
// closer flushes and closes the file. An empty File disables logging.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	if opts.File == "" {
		return Discard(), io.NopCloser(nil), nil
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	w := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}
	return NewWithWriter(w, level), w, nil
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
