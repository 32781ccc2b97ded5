package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"", LogLevelInfo, false},
		{"debug", LogLevelDebug, false},
		{" WARNING ", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"verbose", LogLevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLogLevel(%q) err=%v wantErr=%v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseLogLevel(%q)=%v want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLogFormat(t *testing.T) {
	if f, err := ParseLogFormat("colour"); err != nil || f != FormatColor {
		t.Fatalf("colour => %v,%v", f, err)
	}
	if f, err := ParseLogFormat(""); err != nil || f != FormatText {
		t.Fatalf("empty => %v,%v", f, err)
	}
	if _, err := ParseLogFormat("xml"); err == nil {
		t.Fatalf("expected error for xml format")
	}
}

func TestLogLevel_ToSlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LogLevelError, slog.LevelError},
		{LogLevelWarn, slog.LevelWarn},
		{LogLevelInfo, slog.LevelInfo},
		{LogLevelDebug, slog.LevelDebug},
		{LogLevel(99), slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := tt.level.ToSlogLevel(); got != tt.expected {
			t.Fatalf("%v.ToSlogLevel()=%v want %v", tt.level, got, tt.expected)
		}
	}
}

func TestNewLoggerTo_TextMasksCommand(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelInfo, FormatText)
	logger.Info("executing", "command", "curl -H 'Authorization: Bearer abc.def' https://x")

	out := buf.String()
	if strings.Contains(out, "abc.def") {
		t.Fatalf("token leaked into log: %s", out)
	}
	if !strings.Contains(out, MaskedValue) {
		t.Fatalf("expected masked value in log: %s", out)
	}
}

func TestNewLoggerTo_JSONWithRun(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelDebug, FormatJSON).WithRun("run-1", "https://example.com")
	logger.Debug("done", "exit_code", 0)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log line %q: %v", buf.String(), err)
	}
	if rec["run_id"] != "run-1" || rec["url"] != "https://example.com" {
		t.Fatalf("missing run context: %v", rec)
	}
}

func TestLogger_EnableMasking(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelInfo, FormatText)
	logger.EnableMasking(false)
	logger.Info("raw", "detail", "password=hunter2")
	if !strings.Contains(buf.String(), "hunter2") {
		t.Fatalf("expected raw value with masking disabled: %s", buf.String())
	}
}

func TestLogger_MasksErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelInfo, FormatText)
	logger.Error("failed", "error", errors.New("bad token=abc123"))
	if strings.Contains(buf.String(), "abc123") {
		t.Fatalf("error value not masked: %s", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn, FormatText)
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected filtering: %s", buf.String())
	}
	if logger.Level() != LogLevelWarn {
		t.Fatalf("Level()=%v", logger.Level())
	}
}

func TestDefaultLogger(t *testing.T) {
	orig := GetLogger()
	defer SetDefaultLogger(orig)

	custom := NewDiscardLogger()
	SetDefaultLogger(custom)
	if GetLogger() != custom {
		t.Fatalf("SetDefaultLogger did not replace default")
	}
	SetDefaultLogger(nil)
	if GetLogger() != custom {
		t.Fatalf("nil logger must be ignored")
	}
	custom.Info("dropped")
}
