package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/example/lexibatch/internal/logging"
)

func TestNewJSONIncludesAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("review recorded", logging.Args(logging.UserID(7), logging.CardID(42))...)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if record["msg"] != "review recorded" {
		t.Fatalf("unexpected msg %v", record["msg"])
	}
	if record[logging.FieldUserID] != float64(7) || record[logging.FieldCardID] != float64(42) {
		t.Fatalf("missing attrs in %v", record)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn record missing, got %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestComponentLoggerNilBase(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "scheduler")
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Info("dropped")
}
