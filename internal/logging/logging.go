// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a config string to a slog level / Convertit une chaîne de config en niveau slog
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler builds a console handler for the given level and format.
// format "json" produces JSON lines with source locations, anything else a
// human-readable text handler.
func NewHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// Setup configures the default structured logger / Configure le logger structuré par défaut
func Setup(levelName, format string) {
	level := ParseLevel(levelName)
	slog.SetDefault(slog.New(NewHandler(os.Stdout, level, format)))

	slog.Info("📊 Logging configured",
		"level", level.String(),
		"format", format,
	)
}
