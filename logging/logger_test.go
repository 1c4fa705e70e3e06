package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, err := NewLogger(path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Info("download", "started collection %s", "abc")
	logger.Warn("enrich", "source down")
	logger.Error("download", errors.New("disk full"), "write failed")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = file.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Level != LevelInfo || entries[0].Message != "started collection abc" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Operation != "enrich" {
		t.Errorf("unexpected operation: %+v", entries[1])
	}
	if entries[2].Error != "disk full" {
		t.Errorf("expected error field, got %+v", entries[2])
	}
}

func TestLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	for i := 0; i < 2; i++ {
		logger, err := NewLogger(path)
		if err != nil {
			t.Fatalf("new logger: %v", err)
		}
		logger.Info("op", "line")
		_ = logger.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("expected 2 lines after two runs, got %d", lines)
	}
}

func TestLogAfterCloseIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, err := NewLogger(path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	_ = logger.Close()
	logger.Info("op", "dropped")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty log, got %q", data)
	}
}
