package testutils

import (
	"sync"
)

// CapturedEntry is one log call recorded by CaptureLogger.
type CapturedEntry struct {
	Level   string
	Message string
	Fields  []any
}

// CaptureLogger implements logging.Logger and records every call so tests
// can assert on emitted warnings without parsing JSON output.
type CaptureLogger struct {
	mu      sync.Mutex
	entries []CapturedEntry
}

func NewCaptureLogger() *CaptureLogger {
	return &CaptureLogger{}
}

func (c *CaptureLogger) record(level, msg string, fields []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, CapturedEntry{Level: level, Message: msg, Fields: fields})
}

func (c *CaptureLogger) Debug(msg string, fields ...any) { c.record("DEBUG", msg, fields) }
func (c *CaptureLogger) Info(msg string, fields ...any)  { c.record("INFO", msg, fields) }
func (c *CaptureLogger) Warn(msg string, fields ...any)  { c.record("WARN", msg, fields) }
func (c *CaptureLogger) Error(msg string, fields ...any) { c.record("ERROR", msg, fields) }

// Entries returns a copy of everything recorded so far.
func (c *CaptureLogger) Entries() []CapturedEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CapturedEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// HasMessage reports whether any entry at the given level contains msg.
func (c *CaptureLogger) HasMessage(level, msg string) bool {
	for _, e := range c.Entries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

// FieldsToMap converts alternating key-value pairs to a map for assertions.
// Malformed entries (odd length, non-string key) are skipped.
func FieldsToMap(fields []any) map[string]any {
	result := make(map[string]any)
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			result[key] = fields[i+1]
		}
	}
	return result
}
