package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRun_Validation(t *testing.T) {
	var out bytes.Buffer

	if err := run(context.Background(), options{timeout: time.Second}, &out, &out); err == nil {
		t.Fatalf("expected error without --file")
	}
	if err := run(context.Background(), options{file: "a.dem"}, &out, &out); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
	err := run(context.Background(), options{file: "a.dem", mode: "scoreboard", timeout: time.Second}, &out, &out)
	if err == nil || !strings.Contains(err.Error(), "unknown --mode") {
		t.Fatalf("expected unknown mode error, got=%v", err)
	}
}

func TestRun_MissingFilePrintsEmptyView(t *testing.T) {
	var out bytes.Buffer
	missing := filepath.Join(t.TempDir(), "missing.dem")

	if err := run(context.Background(), options{file: missing, mode: modeIdentity, timeout: time.Second}, &out, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), `"players": []`) {
		t.Fatalf("expected empty player list, got=%s", out.String())
	}
}
