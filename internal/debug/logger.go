// Package debug holds the process-wide slog logger used by the CLI and the
// API server.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Format selects the log line encoding.
type Format string

const (
	// FormatText writes logfmt-style lines.
	FormatText Format = "text"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

var (
	logger = slog.New(slog.DiscardHandler)
	mu     sync.RWMutex
)

// Options configures Init.
type Options struct {
	// Verbose enables debug level output. Without it only warnings and
	// errors are written.
	Verbose bool
	Format  Format
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Init replaces the global logger.
func Init(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, hopts)
	} else {
		handler = slog.NewTextHandler(out, hopts)
	}

	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(handler)
	return logger
}

// Logger returns the global logger. Before Init it discards everything.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
