package logger

import (
	"log/slog"
	"os"
)

// InitLogger initializes and configures the application logger based on environment.
// Development gets a debug-level text handler with source locations; everything else
// logs at info level, as JSON unless logJSON is false.
func InitLogger(environment string, logJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if environment == "development" {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}

	var handler slog.Handler
	if logJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)

	// Set as default logger so it can be used throughout the application
	slog.SetDefault(logger)

	return logger
}
