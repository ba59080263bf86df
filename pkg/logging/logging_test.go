package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected LogLevel
	}{
		{name: "debug", input: "debug", expected: LevelDebug},
		{name: "info", input: "info", expected: LevelInfo},
		{name: "warn", input: "warn", expected: LevelWarn},
		{name: "warning alias", input: "warning", expected: LevelWarn},
		{name: "error", input: "error", expected: LevelError},
		{name: "unknown falls back to info", input: "nope", expected: LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLogLevelString(t *testing.T) {
	if LevelWarn.String() != "WARN" {
		t.Errorf("expected WARN, got %s", LevelWarn.String())
	}
	if LogLevel(42).String() != "UNKNOWN" {
		t.Errorf("expected UNKNOWN for out-of-range level")
	}
}

func TestInitAndFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelWarn, &buf)

	Debug("Test", "debug message should be suppressed")
	Info("Test", "info message should be suppressed")
	Warn("Test", "warn message %d", 1)
	Error("Test", errors.New("boom"), "error message")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("expected debug/info to be filtered at warn level, got: %s", out)
	}
	if !strings.Contains(out, "warn message 1") {
		t.Errorf("expected warn message in output, got: %s", out)
	}
	if !strings.Contains(out, "boom") {
		t.Errorf("expected wrapped error in output, got: %s", out)
	}
	if !strings.Contains(out, "subsystem=Test") {
		t.Errorf("expected subsystem attribute in output, got: %s", out)
	}
}
