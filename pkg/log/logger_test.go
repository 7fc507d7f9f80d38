package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug": DebugLevel,
		"INFO":  InfoLevel,
		"warn":  WarnLevel,
		"error": ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %v want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithLevel(WarnLevel), WithOutput(&buf))
	logger.Info("dropped")
	logger.Warn("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn should pass: %q", out)
	}
}

func TestJSONFormatterFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithFormatter(&JSONFormatter{}), WithOutput(&buf))
	logger.WithComponent("receipts").Info("hello", Str("trace_id", "t1"), Int("hop", 2))

	var obj map[string]any
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if obj["msg"] != "hello" || obj["level"] != "INFO" {
		t.Fatalf("unexpected entry: %v", obj)
	}
	if obj["component"] != "receipts" || obj["trace_id"] != "t1" {
		t.Fatalf("missing fields: %v", obj)
	}
}

func TestTextFormatterComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithOutput(&buf))
	logger.WithComponent("receipts").Warn("degraded", Str("backend", "firestore"))
	out := buf.String()
	if !strings.Contains(out, "[receipts]") || !strings.Contains(out, "backend=firestore") {
		t.Fatalf("unexpected text line: %q", out)
	}
}
