package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
)

func captureLogs(t *testing.T, level LogLevel) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogOutput(&buf)
	SetLogLevel(level)
	t.Cleanup(func() {
		SetLogOutput(os.Stdout)
		SetLogLevel(LogLevelInfo)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{" ERROR ", LogLevelError},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLoggerFiltersBelowMinimumLevel(t *testing.T) {
	buf := captureLogs(t, LogLevelWarn)
	logger := NewStructuredLogger("test")
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message", fmt.Errorf("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("emitted %d entries, want 2: %q", len(lines), buf.String())
	}
	for i, want := range []LogLevel{LogLevelWarn, LogLevelError} {
		var entry LogEntry
		if err := json.Unmarshal([]byte(lines[i]), &entry); err != nil {
			t.Fatalf("entry %d is not JSON: %v", i, err)
		}
		if entry.Severity != want {
			t.Errorf("entry %d severity = %s, want %s", i, entry.Severity, want)
		}
	}
}

func TestLoggerEmitsDebugWhenConfigured(t *testing.T) {
	buf := captureLogs(t, LogLevelDebug)
	logger := NewStructuredLogger("test")

	logger.Debug(context.Background(), "verbose detail", map[string]interface{}{"count": 3})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("entry is not JSON: %v", err)
	}
	if entry.Severity != LogLevelDebug || entry.Message != "verbose detail" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Attributes["count"] != float64(3) {
		t.Errorf("attributes not carried: %+v", entry.Attributes)
	}
}

func TestErrorAttachesErrorAttribute(t *testing.T) {
	buf := captureLogs(t, LogLevelInfo)
	logger := NewStructuredLogger("test")

	logger.Error(context.Background(), "operation failed", fmt.Errorf("connection refused"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("entry is not JSON: %v", err)
	}
	if entry.Attributes["error"] != "connection refused" {
		t.Errorf("error attribute = %v, want connection refused", entry.Attributes["error"])
	}
}

func TestWithComponentKeepsOutputAndLevel(t *testing.T) {
	buf := captureLogs(t, LogLevelWarn)
	child := NewStructuredLogger("parent").WithComponent("child")
	ctx := context.Background()

	child.Info(ctx, "filtered")
	child.Warn(ctx, "emitted")

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("entry is not JSON: %v", err)
	}
	if entry.Component != "child" {
		t.Errorf("component = %s, want child", entry.Component)
	}
	if entry.Message != "emitted" {
		t.Errorf("message = %s, info entry should have been filtered", entry.Message)
	}
}

func TestStructuredLoggerSatisfiesLogger(t *testing.T) {
	var _ Logger = NewStructuredLogger("test")
}
