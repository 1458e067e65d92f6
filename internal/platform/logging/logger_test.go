package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapFields_PairsKeysAndErrors(t *testing.T) {
	t.Parallel()

	fields := zapFields([]any{"steam_id", "76561198000000001", "error", errors.New("boom"), "dangling"})
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[0].Key != "steam_id" {
		t.Fatalf("expected first key steam_id, got %s", fields[0].Key)
	}
	if fields[1].Key != "error" {
		t.Fatalf("expected error key, got %s", fields[1].Key)
	}
	if fields[2].Key != "dangling" {
		t.Fatalf("expected dangling key to be kept, got %s", fields[2].Key)
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	logger := FromZap(zap.New(core)).With("component", "pricing")
	logger.Info("bulk snapshot refreshed", "entries", 3)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["component"] != "pricing" {
		t.Fatalf("expected component=pricing, got %v", ctx["component"])
	}
	if ctx["entries"] != int64(3) {
		t.Fatalf("expected entries=3, got %v", ctx["entries"])
	}
}

func TestNewConsole_WritesToWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewConsole(LevelInfo, &buf)
	logger.Debug("hidden")
	logger.Warn("visible", "file", "match.dem")
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered at info level: %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "match.dem") {
		t.Fatalf("expected warn line with field, got %q", out)
	}
}
