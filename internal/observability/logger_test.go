package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/hrsight/hrsight/internal/config"
)

func testConfig(format string) config.Config {
	return config.Config{
		Profile: config.ProfileTest,
		Service: config.ServiceConfig{Name: "hrsight-api"},
		Observability: config.ObservabilityConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: format,
		},
	}
}

func TestNewLoggerJSONIncludesServiceAttrs(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(testConfig(config.LogFormatJSON), &buf).Info("question_answered", slog.Int("rows", 3))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if entry["service"] != "hrsight-api" || entry["profile"] != "test" {
		t.Fatalf("entry = %#v", entry)
	}
	if entry["msg"] != "question_answered" {
		t.Fatalf("msg = %#v", entry["msg"])
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(testConfig(config.LogFormatText), &buf).Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug line to be filtered, got %q", buf.String())
	}
}

func TestNewLoggerConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(testConfig(config.LogFormatConsole), &buf).Info("statement_generated")
	if !strings.Contains(buf.String(), "statement_generated") {
		t.Fatalf("console output = %q", buf.String())
	}
}

func TestNewLoggerNilWriter(t *testing.T) {
	NewLogger(testConfig(config.LogFormatJSON), nil).Info("discarded")
}
