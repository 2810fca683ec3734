// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
)

// Level returns the log level selected by the command line flags.
func Level(debug, quiet bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	if quiet {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// New creates a text logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup installs a logger writing to w as the default.
func Setup(w io.Writer, debug, quiet bool) *slog.Logger {
	logger := New(w, Level(debug, quiet))
	slog.SetDefault(logger)
	return logger
}
