// Package logging builds the process logger: one log/slog logger writing
// to a rotating file in the configuration directory and to the console.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file inside the configuration directory.
const FileName = "zenith.log"

// Options configure New.
type Options struct {
	Dir     string     // directory holding FileName; empty disables the file sink
	Level   slog.Level // minimum level for both sinks
	Console io.Writer  // defaults to os.Stderr
}

// New creates the logger. The returned Closer releases the log file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	if strings.TrimSpace(opts.Dir) == "" {
		return slog.New(NewHandler(console, opts.Level)), nopCloser{}, nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	handler := NewHandler(io.MultiWriter(file, console), opts.Level)
	return slog.New(handler), file, nil
}

// ParseLevel converts debug, info, warn or error to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
