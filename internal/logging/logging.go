// Structured logging helpers shared by the CLI and the simulator.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a logger with a text handler writing to STDERR at the given level.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewWriter returns a logger writing to w, used when the terminal is owned by
// the TUI.
func NewWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
