package log

import (
	"context"
	"io"
	"log/slog"
)

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

type discardHandler struct{}

func (h *discardHandler) Handle(_ context.Context, r slog.Record) error {
	return nil
}

func (h *discardHandler) Enabled(_ context.Context, level slog.Level) bool {
	return false
}

func (h *discardHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *discardHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &discardHandler{}
}

// NewTerminalHandlerWithLevel returns a text handler writing to wr that emits
// records at or above lvl. Level names use the aligned 5-character form.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Level, useColor bool) slog.Handler {
	return slog.NewTextHandler(wr, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: replaceLevel(useColor),
	})
}

// JSONHandlerWithLevel returns a handler that writes JSON records at or above lvl.
func JSONHandlerWithLevel(wr io.Writer, lvl slog.Level) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: replaceLevel(false),
	})
}

func replaceLevel(useColor bool) func(groups []string, a slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 || a.Key != slog.LevelKey {
			return a
		}
		lvl, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		name := LevelAlignedString(lvl)
		if useColor {
			name = levelColor(lvl) + name + "\x1b[0m"
		}
		return slog.String(slog.LevelKey, name)
	}
}

func levelColor(l slog.Level) string {
	switch {
	case l >= LevelCrit:
		return "\x1b[35m"
	case l >= slog.LevelError:
		return "\x1b[31m"
	case l >= slog.LevelWarn:
		return "\x1b[33m"
	case l >= slog.LevelInfo:
		return "\x1b[32m"
	case l >= slog.LevelDebug:
		return "\x1b[36m"
	default:
		return "\x1b[34m"
	}
}
