// Package logging writes structured JSON run logs alongside the standard
// log output, so every invocation leaves a machine-readable trace.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is the log entry severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one structured log line.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Operation string    `json:"operation,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Logger appends JSON lines to a run log file. Safe for concurrent use.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// NewLogger opens (or creates) the run log at path in append mode.
func NewLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return &Logger{file: file}, nil
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) log(level Level, operation, message string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}

	entry := Entry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Operation: operation,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		_, _ = fmt.Fprintf(l.file, "{\"timestamp\":%q,\"level\":%q,\"message\":%q}\n",
			time.Now().Format(time.RFC3339), level, message)
		return
	}
	_, _ = fmt.Fprintln(l.file, string(data))
}

// Info logs an informational message for an operation.
func (l *Logger) Info(operation, format string, args ...interface{}) {
	l.log(LevelInfo, operation, fmt.Sprintf(format, args...), nil)
}

// Warn logs a warning for an operation.
func (l *Logger) Warn(operation, format string, args ...interface{}) {
	l.log(LevelWarn, operation, fmt.Sprintf(format, args...), nil)
}

// Error logs an error for an operation.
func (l *Logger) Error(operation string, err error, format string, args ...interface{}) {
	l.log(LevelError, operation, fmt.Sprintf(format, args...), err)
}
