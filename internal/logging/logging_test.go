package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ppiankov/reltext/internal/model"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONWithRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(model.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = closer.Close() }()

	logger, runID := WithRunID(logger)
	if _, err := uuid.Parse(runID); err != nil {
		t.Errorf("expected a UUID run id, got %q", runID)
	}

	logger.Debug("hidden")
	logger.Info("document processed", "path", "a.txt")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 record, got %d: %s", len(lines), buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if record["run_id"] != runID || record["path"] != "a.txt" {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reltext.log")
	logger, closer, err := New(model.LoggingConfig{File: path, MaxSizeMB: 1}, os.Stderr)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Warn("skipping document", "path", "bad.txt")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "skipping document") {
		t.Errorf("expected record in log file, got %q", data)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, _, err := New(model.LoggingConfig{Format: "xml"}, os.Stderr); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, _, err := New(model.LoggingConfig{Level: "chatty"}, os.Stderr); err == nil {
		t.Error("expected error for unknown level")
	}
}
