package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/okmqtt/internal/infrastructure/config"
)

// ServiceName is attached to every log entry.
const ServiceName = "okmqtt"

// Logger wraps slog.Logger with bridge-wide default fields. It satisfies the
// narrow Logger interfaces of the llap and mqtt packages.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing to cfg.Output ("stdout" or "stderr"),
// tagged with the bridge version.
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	return NewWithWriter(cfg, version, output)
}

// NewWithWriter creates a Logger writing to w. cfg.Output is ignored.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", ServiceName),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// parseLevel maps debug, warn and error; anything else is info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a Logger carrying extra attributes, e.g. component=bridge.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Default creates a logger for use before configuration is loaded.
// It writes JSON at info level to stdout.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}

// Discard returns a logger that drops everything. Handy in tests and for
// one-shot CLI commands that only print results.
func Discard() *Logger {
	return NewWithWriter(config.LoggingConfig{Level: "error"}, "dev", io.Discard)
}
