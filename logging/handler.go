package logging

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/giygas/anesdose/config"
)

// parseLogLevel maps a LOG_LEVEL value to a slog level. Unknown values mean info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// GetConsoleLogLevel picks the console level. An explicit level wins,
// verbose forces debug, and otherwise production is quieter than the rest.
func GetConsoleLogLevel(env config.Environment, level string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if level != "" {
		return parseLogLevel(level)
	}
	switch env {
	case config.EnvProduction:
		return slog.LevelWarn
	case config.EnvTest:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel is always debug; the file is the full record.
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// multiHandler fans a record out to every handler that accepts its level.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		out[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: out}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		out[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: out}
}
