// Package log builds the slog handler used by every stamp command.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Accepted --log-format values.
const (
	TextFormat   = "text"
	JSONFormat   = "json"
	PrettyFormat = "pretty"
)

// Formats returns the accepted --log-format values.
func Formats() []string {
	return []string{TextFormat, JSONFormat, PrettyFormat}
}

// CreateHandler returns a handler writing to w at level in the given format.
// An empty format means text.
func CreateHandler(w io.Writer, level slog.Level, format string) (slog.Handler, error) {
	switch strings.ToLower(format) {
	case TextFormat, "":
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}), nil
	case JSONFormat:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), nil
	case PrettyFormat:
		l := charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmLevel(level),
			ReportTimestamp: false,
		})
		return l, nil
	default:
		return nil, fmt.Errorf("unknown log format %q: must be one of %s", format, strings.Join(Formats(), ", "))
	}
}

// New is CreateHandler wrapped in a logger, with verbose selecting debug level.
func New(w io.Writer, verbose bool, format string) (*slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h, err := CreateHandler(w, level, format)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

func charmLevel(level slog.Level) charmlog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmlog.DebugLevel
	case level <= slog.LevelInfo:
		return charmlog.InfoLevel
	case level <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}
