package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", JSON: true, Out: &buf}).With(String("component", "test"))

	log.Info("hello", Int64("user", 42), Err(errors.New("boom")))

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v (%q)", err, buf.String())
	}
	if got["message"] != "hello" {
		t.Errorf("expected message hello, got %v", got["message"])
	}
	if got["component"] != "test" {
		t.Errorf("expected component test, got %v", got["component"])
	}
	if got["user"] != float64(42) {
		t.Errorf("expected user 42, got %v", got["user"])
	}
	if got["err"] != "boom" {
		t.Errorf("expected err boom, got %v", got["err"])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", JSON: true, Out: &buf})

	log.Debug("hidden")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}

	log.Warn("shown")
	if buf.Len() == 0 {
		t.Error("expected warn output")
	}
}

func TestZeroLoggerIsNoop(t *testing.T) {
	var log Logger
	log.Error("nothing", String("k", "v"))
	Nop().Info("nothing")
}
