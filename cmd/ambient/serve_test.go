package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/gorewood/ambient/internal/config"
	"github.com/gorewood/ambient/internal/gittest"
)

func TestNewServeCmd(t *testing.T) {
	cmd := newServeCmd()

	if cmd.Use != "serve" {
		t.Errorf("Use = %q, want %q", cmd.Use, "serve")
	}
	if cmd.RunE == nil {
		t.Error("RunE is nil")
	}
}

func TestNewCoordinator_RunsEntrypointOncePerSession(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, ".ambient", "session-context")
	gittest.WriteFile(t, script, "#!/bin/sh\necho run >> runs.log\nprintf 'context from %s' \"$(basename \"$PWD\")\"\n")
	if err := os.Chmod(script, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{Workspace: dir, Session: config.SessionConfig{Entrypoint: config.DefaultEntrypoint}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coordinator := newCoordinator(ctx, cfg, zap.NewNop())

	parent := "parent"
	for range 3 {
		text, ok := coordinator.Context(ctx, parent)
		if !ok || text != "context from "+filepath.Base(dir) {
			t.Fatalf("Context() = %q, %v", text, ok)
		}
	}
	coordinator.SessionCreated("child", &parent)
	if text, ok := coordinator.Context(ctx, "child"); !ok || text == "" {
		t.Errorf("child context = %q, %v", text, ok)
	}
	if got := coordinator.Stats().Generations; got != 1 {
		t.Errorf("generations = %d, want 1", got)
	}
}
