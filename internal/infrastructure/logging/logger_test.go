package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"
	"testing"
)

// captureOutput redirects the standard log package for the duration of fn.
func captureOutput(fn func()) string {
	var buf bytes.Buffer
	oldWriter := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldWriter)
		log.SetFlags(oldFlags)
	}()
	fn()
	return buf.String()
}

func TestDefaultLogger_EmitsJSON(t *testing.T) {
	logger := NewLoggerWithLevel(LevelDebug)

	out := captureOutput(func() {
		logger.Info("Loaded active time state", "domains", 3, "totalMs", int64(1200))
	})

	var entry struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if entry.Level != "INFO" {
		t.Errorf("level = %q, want INFO", entry.Level)
	}
	if entry.Message != "Loaded active time state" {
		t.Errorf("message = %q", entry.Message)
	}
	if entry.Fields["domains"] != float64(3) {
		t.Errorf("fields[domains] = %v, want 3", entry.Fields["domains"])
	}
}

func TestDefaultLogger_RespectsMinLevel(t *testing.T) {
	logger := NewDefaultLogger() // Info and above

	out := captureOutput(func() {
		logger.Debug("noisy detail")
	})
	if strings.TrimSpace(out) != "" {
		t.Errorf("Debug emitted below min level: %q", out)
	}

	out = captureOutput(func() {
		logger.Error("something broke")
	})
	if !strings.Contains(out, "ERROR") {
		t.Errorf("Error not emitted: %q", out)
	}
}

func TestFieldsToMap_Malformed(t *testing.T) {
	// Odd trailing value keeps a positional key.
	m := fieldsToMap([]interface{}{"key", "value", "dangling"})
	if m["key"] != "value" {
		t.Errorf("m[key] = %v", m["key"])
	}
	if _, ok := m["field_1"]; !ok {
		t.Errorf("dangling value dropped: %v", m)
	}

	// Non-string key keeps a positional key instead of panicking.
	m = fieldsToMap([]interface{}{42, "answer"})
	if m["field_0"] != "answer" {
		t.Errorf("non-string key handling = %v", m)
	}

	if fieldsToMap(nil) != nil {
		t.Error("empty fields must map to nil for omitempty")
	}
}
