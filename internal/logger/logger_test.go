package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"BreakoutSentinel/internal/model"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("debug", "json", &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.WithField("symbol", "IBM").Info("range found")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry %q: %v", buf.String(), err)
	}
	if entry["message"] != "range found" || entry["symbol"] != "IBM" || entry["level"] != "info" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New("loud", "text", nil); !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("expected configuration error for bad level, got %v", err)
	}
	if _, err := New("info", "xml", nil); !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("expected configuration error for bad format, got %v", err)
	}
}
