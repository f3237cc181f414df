// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config selects the handler and level of the process logger.
type Config struct {
	Level     string
	Format    string
	Timestamp bool
}

// DefaultConfig logs info and above as text with timestamps.
func DefaultConfig() Config {
	return Config{Level: "info", Format: FormatText, Timestamp: true}
}

// ParseLevel maps a level name to a slog level. disabled is true for the
// names that switch logging off. ok is false for empty or unknown names.
func ParseLevel(raw string) (level slog.Level, disabled bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return slog.LevelInfo, false, false
	case "trace", "diagnostics", "debug":
		return slog.LevelDebug, false, true
	case "info":
		return slog.LevelInfo, false, true
	case "warn", "warning":
		return slog.LevelWarn, false, true
	case "error":
		return slog.LevelError, false, true
	case "disabled", "disable", "off", "none", "inactive":
		return slog.LevelInfo, true, true
	default:
		return slog.LevelInfo, false, false
	}
}

// ValidFormat reports whether format names a known handler.
func ValidFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText, FormatJSON:
		return true
	}
	return false
}

// New returns a logger writing to w. Unknown levels fall back to info.
func New(w io.Writer, cfg Config) *slog.Logger {
	level, disabled, _ := ParseLevel(cfg.Level)
	if disabled || w == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	opts := &slog.HandlerOptions{Level: level}
	if !cfg.Timestamp {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}
	}

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(cfg.Format), FormatJSON) {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}
