package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&Config{Level: "debug", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter failed: %v", err)
	}

	l.Info("fit finished",
		String("solver", "coordinate"),
		Int("iterations", 42),
		Float64("mae", 12.5),
		Bool("converged", true),
		Duration("elapsed", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not JSON: %v (%s)", err, buf.String())
	}

	tests := []struct {
		key      string
		expected interface{}
	}{
		{"message", "fit finished"},
		{"level", "info"},
		{"solver", "coordinate"},
		{"iterations", float64(42)},
		{"mae", 12.5},
		{"converged", true},
		{"elapsed", float64(1500)},
		{"error", "boom"},
	}
	for _, tt := range tests {
		if entry[tt.key] != tt.expected {
			t.Errorf("Field %s: expected %v, got %v", tt.key, tt.expected, entry[tt.key])
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&Config{Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter failed: %v", err)
	}

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected debug and info suppressed, got %s", buf.String())
	}
	l.Warn("shown")
	if buf.Len() == 0 {
		t.Error("Expected warn to be written")
	}
}

func TestInvalidLevel(t *testing.T) {
	if _, err := NewWithWriter(&Config{Level: "chatty"}, &bytes.Buffer{}); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	l, _ := NewWithWriter(&Config{Level: "info"}, &buf)
	l.With(String("run", "abc")).Info("stage done")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if entry["run"] != "abc" {
		t.Errorf("Expected run field from With, got %v", entry["run"])
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("discarded", String("k", "v"))
	l.With(Int("n", 1)).Error("discarded")
}
