package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog replaces the default logger with a text handler writing to
// stderr. Verbose enables debug-level rows (per-row parse warnings and the
// like).
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
