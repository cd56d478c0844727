package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"":        Info,
		"debug":   Debug,
		" WARN ":  Warn,
		"warning": Warn,
		"error":   Error,
		"bogus":   Info,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLogger_WritesFieldsAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Info, Format: FormatJSON, App: "straypet", Out: &buf})

	l.Debug("hidden", nil)
	l.With(map[string]any{"pet_id": "p-1"}).Warn("geocode failed", map[string]any{
		"err": errors.New("timeout"),
		"":    "ignored",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered), got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["level"] != "warn" || entry["message"] != "geocode failed" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if entry["app"] != "straypet" || entry["pet_id"] != "p-1" || entry["err"] != "timeout" {
		t.Fatalf("missing fields: %#v", entry)
	}
	if _, ok := entry[""]; ok {
		t.Fatalf("empty key should be dropped")
	}
}
