// Package logging wires up the slog logger plashboardd and plashctl share:
// JSON records, optional rotation to a file via lumberjack, and run-id
// enrichment through ContextHandler.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup.
type Options struct {
	// FilePath rotates JSON logs to this file when set; empty means stdout only.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Level      slog.Level
}

// Setup builds the default logger and installs it via slog.SetDefault,
// returning it for callers that want to hold their own reference (e.g. to
// pass into a Writer.Close-equivalent during shutdown).
func Setup(opts Options) *slog.Logger {
	var out io.Writer = os.Stdout
	if opts.FilePath != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		})
	}

	base := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: opts.Level})
	logger := slog.New(NewContextHandler(base))
	slog.SetDefault(logger)
	return logger
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
