package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
)

func TestNew_WritesServiceFieldsAndArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: LevelInfo, Service: "nba-pickem", Environment: "dev", Writer: &buf})

	logger.Named("applier").With("game_id", "0022400061").InfoContext(context.Background(), "game applied", "picks_updated", 2, "error", errors.New("none"))
	logger.Debug("dropped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := sonic.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "game applied" || entry["service"] != "nba-pickem" || entry["env"] != "dev" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry["logger"] != "applier" || entry["game_id"] != "0022400061" {
		t.Fatalf("missing scoped fields: %+v", entry)
	}
	if entry["picks_updated"] != float64(2) || entry["error"] != "none" {
		t.Fatalf("unexpected args: %+v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%v want %v", in, got, want)
		}
	}
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	if logger.With("k", "v") == nil {
		t.Fatalf("With on nil logger must return a usable logger")
	}
}
