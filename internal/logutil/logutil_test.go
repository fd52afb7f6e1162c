package logutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		SetLevel("info")
	})
	fn()
	return buf.String()
}

func TestErrorIncludesErrorField(t *testing.T) {
	out := captureLog(t, func() {
		Error("upstream failed", errors.New("boom"), map[string]interface{}{"status": 502})
	})
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, out)
	}
	if entry["level"] != "error" || entry["error"] != "boom" || entry["message"] != "upstream failed" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestSetLevelFiltersLowerLevels(t *testing.T) {
	out := captureLog(t, func() {
		SetLevel("warn")
		Info("hidden", nil)
		Debug("hidden", nil)
		Warn("shown", nil)
	})
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info/debug to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("expected warn output, got %q", out)
	}
}

func TestReservedFieldsAreNotOverwritten(t *testing.T) {
	entry := buildEntry("info", "hello", map[string]interface{}{"message": "spoof"})
	if entry["message"] != "hello" {
		t.Fatalf("message overwritten: %+v", entry)
	}
	if entry["field_message"] != "spoof" {
		t.Fatalf("expected prefixed field, got %+v", entry)
	}
}
