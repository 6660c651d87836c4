package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New()
	log.SetOutput(&buf)

	log.Info("task_interpreted", map[string]interface{}{"count": 100})

	line := buf.String()
	if !strings.HasPrefix(line, "INFO ") {
		t.Errorf("line does not start with level: %q", line)
	}
	if !strings.Contains(line, "task_interpreted") {
		t.Errorf("message missing: %q", line)
	}
	if !strings.Contains(line, "count=100") {
		t.Errorf("fields missing: %q", line)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New()
	log.SetOutput(&buf)

	log.WithComponent("negotiation").Info("phase_transition")
	if !strings.Contains(buf.String(), "[negotiation]") {
		t.Errorf("component missing: %q", buf.String())
	}
}

func TestWithSessionInjectsField(t *testing.T) {
	var buf bytes.Buffer
	log := New()
	log.SetOutput(&buf)

	log.WithSession("abc-123").Info("hello")
	if !strings.Contains(buf.String(), "session=abc-123") {
		t.Errorf("session field missing: %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New()
	log.SetOutput(&buf)

	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug logged at info level: %q", buf.String())
	}

	log.SetLevel(LevelDebug)
	log.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug suppressed at debug level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"garbage", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDerivedLoggersShareOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New()
	log.SetOutput(&buf)

	log.WithComponent("catalog").WithSession("s1").Warn("catalog_reload_failed")
	line := buf.String()
	if !strings.HasPrefix(line, "WARN ") {
		t.Errorf("level wrong: %q", line)
	}
	if !strings.Contains(line, "[catalog]") || !strings.Contains(line, "session=s1") {
		t.Errorf("derived context lost: %q", line)
	}
}
