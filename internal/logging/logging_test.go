package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for raw, want := range cases {
		got, err := ParseLevel(raw)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected unknown level error")
	}
}

func TestNewDropsEmptyAttrsAndRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelWarn)
	logger := New(&buf, ll, true)

	logger.Info("hidden")
	logger.Warn("page fetch failed", "entity", "customer", "error", "")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "entity=customer") {
		t.Fatalf("expected entity attr: %q", out)
	}
	if strings.Contains(out, "error=") {
		t.Fatalf("empty attr should be dropped: %q", out)
	}
}
