// Package logging builds the slog handler shared by the binaries.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// ParseLevel maps debug, info, warn or error onto a slog level.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", raw)
	}
}

// Setup installs a tint handler on stderr as the default logger. Colour is
// disabled when stderr is not a terminal.
func Setup(level string) (*slog.Logger, *slog.LevelVar, error) {
	ll := &slog.LevelVar{}
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	ll.Set(parsed)
	logger := New(colorable.NewColorable(os.Stderr), ll, !isatty.IsTerminal(os.Stderr.Fd()))
	slog.SetDefault(logger)
	return logger, ll, nil
}

// New builds a tint logger writing to w.
func New(w io.Writer, level slog.Leveler, noColor bool) *slog.Logger {
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			if isZero(a.Value.Any()) {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func isZero(val any) bool {
	switch t := val.(type) {
	case string:
		return t == ""
	case time.Time:
		return t.IsZero()
	case time.Duration:
		return t == 0
	case nil:
		return true
	}
	return false
}
