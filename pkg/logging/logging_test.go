package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		// Lowercase
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},

		// Uppercase
		{"DEBUG", LevelDebug},
		{"INFO", LevelInfo},
		{"WARN", LevelWarn},
		{"WARNING", LevelWarn},
		{"ERROR", LevelError},

		// Mixed case (the fix: these should all work now)
		{"Debug", LevelDebug},
		{"Info", LevelInfo},
		{"Warn", LevelWarn},
		{"Warning", LevelWarn},
		{"Error", LevelError},
		{"dEbUg", LevelDebug},

		// Empty string defaults to Info
		{"", LevelInfo},

		// Unrecognized defaults to Info
		{"trace", LevelInfo},
		{"fatal", LevelInfo},
		{"unknown", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"Json", FormatJSON},
		{"text", FormatText},
		{"TEXT", FormatText},
		{"", FormatText},
		{"yaml", FormatText}, // unrecognized defaults to text
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseFormat(tt.input)
			if result != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewMirrorsToJSON(t *testing.T) {
	var out, mirror bytes.Buffer
	log := New(Config{Level: LevelDebug, Format: FormatText, Output: &out, Mirror: &mirror})

	log.Debug("wrote fixture", "path", "api.test/items.json")

	if !strings.Contains(out.String(), "msg=\"wrote fixture\"") {
		t.Errorf("text output = %q, want msg attribute", out.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(mirror.Bytes(), &entry); err != nil {
		t.Fatalf("mirror output is not JSON: %v (%q)", err, mirror.String())
	}
	if entry["path"] != "api.test/items.json" {
		t.Errorf("mirror path = %v, want api.test/items.json", entry["path"])
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestMirrorKeepsSessionAttributes(t *testing.T) {
	var out, mirror bytes.Buffer
	log := Session(New(Config{Level: LevelInfo, Output: &out, Mirror: &mirror}), "abc", "mocking")

	log.WithGroup("fixture").Info("using fixture", "path", "api.test/items.json")

	var entry map[string]any
	if err := json.Unmarshal(mirror.Bytes(), &entry); err != nil {
		t.Fatalf("mirror output is not JSON: %v (%q)", err, mirror.String())
	}
	if entry["session"] != "abc" || entry["mode"] != "mocking" {
		t.Errorf("mirror entry = %v, want session and mode attributes", entry)
	}
	group, _ := entry["fixture"].(map[string]any)
	if group["path"] != "api.test/items.json" {
		t.Errorf("mirror entry = %v, want fixture.path", entry)
	}
	if !strings.Contains(out.String(), "session=abc") {
		t.Errorf("console output = %q, want session attribute", out.String())
	}
}

func TestMirrorFailureDoesNotSilenceConsole(t *testing.T) {
	var out bytes.Buffer
	log := New(Config{Level: LevelInfo, Output: &out, Mirror: failingWriter{}})

	log.Info("session started")

	if !strings.Contains(out.String(), "session started") {
		t.Errorf("console output = %q, want entry despite mirror failure", out.String())
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var out bytes.Buffer
	log := New(Config{Level: LevelInfo, Output: &out})

	log.Debug("hidden")
	if out.Len() != 0 {
		t.Errorf("debug entry written at info level: %q", out.String())
	}
}

func TestSessionAttributes(t *testing.T) {
	var out bytes.Buffer
	log := Session(New(Config{Level: LevelInfo, Format: FormatJSON, Output: &out}), "abc", "capturing")

	log.Info("session started")

	var entry map[string]any
	if err := json.Unmarshal(out.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["session"] != "abc" || entry["mode"] != "capturing" {
		t.Errorf("entry = %v, want session and mode attributes", entry)
	}

	// A nil parent falls back to a no-op logger.
	Session(nil, "x", "mocking").Info("dropped")
}
