package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetGlobalLoggerDefault(t *testing.T) {
	prev := GetGlobalLogger()
	SetGlobalLogger(nil)
	defer SetGlobalLogger(prev)

	l := GetGlobalLogger()
	if l == nil || l.service != "azjwt" {
		t.Fatalf("expected default azjwt logger, got %+v", l)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "debug", Format: "json"}, "svc", &buf)
	l.WithComponent("discovery").Debug("fetched", Fields(FieldAttempt, 2))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "discovery" {
		t.Errorf("expected component field, got %v", entry["component"])
	}
	if entry["attempt"] != float64(2) {
		t.Errorf("expected attempt=2, got %v", entry["attempt"])
	}
	if entry["service"] != "svc" {
		t.Errorf("expected service=svc, got %v", entry["service"])
	}
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "warn", Format: "json"}, "svc", &buf)
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn to be written, got %q", buf.String())
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l := New(&Config{Level: "invalid-level", Format: "json"}, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "azjwt.log")
	l := New(&Config{Level: "info", Format: "json", Output: path}, "svc")
	l.Info("to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("expected entry in file, got %q", data)
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "json"}, "svc", &buf)
	l.WithError(errors.New("boom")).Error("failed")
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("expected error field, got %q", buf.String())
	}
}

func TestNop(t *testing.T) {
	NewNop().Error("nothing")
}

func TestFields(t *testing.T) {
	f := Fields("a", 1, "b", "two", "dangling")
	if len(f) != 2 || f["a"] != 1 || f["b"] != "two" {
		t.Errorf("unexpected fields %v", f)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	cfg.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected invalid level error")
	}
}

func TestRegistry_GetFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	prev := GetGlobalLogger()
	SetGlobalLogger(NewWithWriter(&Config{Level: "info", Format: "json"}, "svc", &buf))
	defer SetGlobalLogger(prev)

	Get("verifier").Info("hello")
	if !strings.Contains(buf.String(), `"component":"verifier"`) {
		t.Errorf("expected component tag, got %q", buf.String())
	}

	named := NewNop()
	Register("named", named)
	if Get("named") != named {
		t.Error("expected registered logger")
	}
}
