package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "json", Level: slog.LevelInfo})

	log.Info("stamp created", "stamp_id", "stmp-abc", "plan_id", "plan-xyz")

	out := buf.String()
	if !strings.Contains(out, `"msg":"stamp created"`) {
		t.Errorf("expected JSON output with message, got: %s", out)
	}
	if !strings.Contains(out, `"stamp_id":"stmp-abc"`) {
		t.Errorf("expected stamp_id attribute, got: %s", out)
	}
}

func TestNewProductionDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "production"})

	log.Info("hello")

	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected JSON output in production, got: %s", buf.String())
	}
}

func TestPrettyHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty", Level: slog.LevelWarn})

	log.Debug("should not appear")
	log.Info("should not appear either")
	log.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("level filtering failed: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("expected warn output: %s", out)
	}
}
