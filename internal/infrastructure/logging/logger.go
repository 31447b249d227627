package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Logger is the structured logging interface used across the engine.
// Fields are alternating key-value pairs: "domain", "example.com", "visits", 12.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Level controls which entries a DefaultLogger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// DefaultLogger emits one JSON object per entry via the standard log package.
type DefaultLogger struct {
	minLevel Level
}

// NewDefaultLogger creates a logger that emits Info and above.
func NewDefaultLogger() Logger {
	return &DefaultLogger{minLevel: LevelInfo}
}

// NewLoggerWithLevel creates a logger with an explicit minimum level.
func NewLoggerWithLevel(level Level) Logger {
	return &DefaultLogger{minLevel: level}
}

type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// fieldsToMap converts the variadic fields slice to a map.
// Odd trailing values and non-string keys are kept under positional keys
// instead of being dropped, so malformed call sites still leave a trace.
func fieldsToMap(fields []interface{}) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	result := make(map[string]interface{}, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
			break
		}
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("field_%d", i/2)
		}
		result[key] = fields[i+1]
	}
	return result
}

func (l *DefaultLogger) emit(level Level, name, msg string, fields []interface{}) {
	if level < l.minLevel {
		return
	}
	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     name,
		Message:   msg,
		Fields:    fieldsToMap(fields),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		// Fields contained something unmarshalable; fall back to fmt.
		log.Printf(`{"timestamp":%q,"level":%q,"message":%q,"fields":"%v"}`,
			entry.Timestamp, name, msg, fields)
		return
	}
	log.Print(string(payload))
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.emit(LevelDebug, "DEBUG", msg, fields)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.emit(LevelInfo, "INFO", msg, fields)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.emit(LevelWarn, "WARN", msg, fields)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.emit(LevelError, "ERROR", msg, fields)
}
