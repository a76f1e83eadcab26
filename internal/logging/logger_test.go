package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"labelbench/internal/config"
	"labelbench/internal/logging"
	"labelbench/internal/services"
)

func TestConsoleLoggerFormatsComponentAndSubject(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "0123456789abcdef")
	ctx = services.WithItemIndex(ctx, 4)
	component := logging.NewComponentLogger(logger, "classify")
	logging.WithContext(ctx, component).Info("classified item", logging.String("label", "Relevant"))

	line := buf.String()
	for _, want := range []string{"INFO", "[classify]", "run 01234567", "item #4", "classified item", "label=Relevant"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRequestID(context.Background(), "req-1")
	logging.WithContext(ctx, logger).Warn("slow backend")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if payload["level"] != "warn" || payload["msg"] != "slow backend" {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %#v", payload)
	}
	if payload[logging.FieldRequestID] != "req-1" {
		t.Fatalf("expected request id, got %#v", payload)
	}
}

func TestLoggerFileSinkReceivesJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "labelbench.log")
	logger, err := logging.New(logging.Options{Output: &buf, File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("run finished", logging.Int("items", 3))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"items":3`) {
		t.Fatalf("expected JSON record in file, got %q", data)
	}
	if !strings.Contains(buf.String(), "run finished") {
		t.Fatalf("expected console record, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormatAndLevel(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if _, err := logging.New(logging.Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unsupported level")
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"
	var buf bytes.Buffer
	logger, err := logging.NewFromConfig(&cfg, &buf)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if !logger.Enabled(context.Background(), -4) {
		t.Fatal("expected debug level to be enabled")
	}
	logger.Debug("tokenizer ready", logging.String("encoding", "cl100k_base"))
	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("expected json on the supplied writer, got %q: %v", buf.String(), err)
	}
	if payload["msg"] != "tokenizer ready" || payload["encoding"] != "cl100k_base" {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "answer outside categories", "classify_invalid_label",
		logging.String(logging.FieldImpact, "prediction counted as incorrect"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if payload[logging.FieldEventType] != "classify_invalid_label" {
		t.Fatalf("missing event type: %#v", payload)
	}
	if payload[logging.FieldErrorHint] != "check logs for details" {
		t.Fatalf("missing default hint: %#v", payload)
	}
	if payload[logging.FieldImpact] != "prediction counted as incorrect" {
		t.Fatalf("impact overwritten: %#v", payload)
	}
}
