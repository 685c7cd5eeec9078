package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/felixgeelhaar/stride/internal/errors"
)

func testConfig(buf *bytes.Buffer, level Level, format Format) Config {
	return Config{
		Level:  level,
		Format: format,
		Output: NewOutput(buf),
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(testConfig(&buf, LevelWarn, FormatText))

	logger.Debug("debug msg")
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg")

	out := buf.String()
	if strings.Contains(out, "debug msg") || strings.Contains(out, "info msg") {
		t.Errorf("messages below WARN should be suppressed, got: %s", out)
	}
	if !strings.Contains(out, "warn msg") || !strings.Contains(out, "error msg") {
		t.Errorf("WARN and ERROR should be logged, got: %s", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(testConfig(&buf, LevelInfo, FormatJSON))

	logger.Info("hello", "goal_id", "g-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry["goal_id"] != "g-1" {
		t.Errorf("goal_id = %v, want g-1", entry["goal_id"])
	}
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(testConfig(&buf, LevelInfo, FormatJSON))

	err := errors.New(errors.ErrCodeMutationNetwork, "PATCH failed").
		WithSuggestion("check backend availability")
	logger.WithError(err).Warn("mutation failed")

	var entry map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &entry); jsonErr != nil {
		t.Fatalf("output is not valid JSON: %v", jsonErr)
	}
	if entry["error_code"] != "SYNC-001" {
		t.Errorf("error_code = %v, want SYNC-001", entry["error_code"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"ERROR", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLogger_Lazy(t *testing.T) {
	SetDefaultLogger(nil)
	if DefaultLogger() == nil {
		t.Error("DefaultLogger should lazily initialize")
	}
}
