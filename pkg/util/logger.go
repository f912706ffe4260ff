package util

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/lmittmann/tint"
)

var logger logr.Logger

// InitLogger initializes the global logger with the specified verbosity and the
// default console format
func InitLogger(verbose bool) {
	InitLoggerWithFormat(verbose, "console")
}

// InitLoggerWithFormat initializes the global logger writing to stderr.
// format is one of console (colorized), text or json.
func InitLoggerWithFormat(verbose bool, format string) {
	initLogger(os.Stderr, verbose, format)
}

func initLogger(w io.Writer, verbose bool, format string) {
	var level slog.Level
	if verbose {
		level = slog.LevelDebug
	} else {
		level = slog.LevelInfo
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	}

	logger = logr.FromSlogHandler(handler)
	slog.SetDefault(slog.New(handler))
}

// GetLogger returns the global logger instance
func GetLogger() logr.Logger {
	if logger.GetSink() == nil {
		// Initialize with default settings if not already initialized
		InitLogger(false)
	}
	return logger
}
