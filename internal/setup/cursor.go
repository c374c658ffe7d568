package setup

import (
	"os"
	"path/filepath"

	"github.com/gorewood/ambient/internal/output"
)

// CursorSessionStartEvent is the Cursor hook event ambient registers on.
const CursorSessionStartEvent = "sessionStart"

// cursorHooksVersion is written when ambient creates hooks.json.
const cursorHooksVersion = 1

// CursorHookCommand is the command Cursor runs when a session starts.
var CursorHookCommand = StatusCommand("cursor")

// CursorEnv implements AgentEnv for Cursor.
type CursorEnv struct{}

func init() {
	RegisterAgentEnv(&CursorEnv{})
}

// Name returns the CLI identifier.
func (c *CursorEnv) Name() string { return "cursor" }

// DisplayName returns the human-readable name.
func (c *CursorEnv) DisplayName() string { return "Cursor" }

// Profile returns the output profile the sessionStart hook uses.
func (c *CursorEnv) Profile() string { return "cursor" }

// ResolveCursorHooksPath returns .cursor/hooks.json for the scope.
func ResolveCursorHooksPath(project bool) (string, string, error) {
	if project {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", output.NewSystemErrorWithCause("failed to get working directory", err)
		}
		return filepath.Join(cwd, ".cursor", "hooks.json"), ScopeProject, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", output.NewSystemErrorWithCause("failed to get home directory", err)
	}
	return filepath.Join(home, ".cursor", "hooks.json"), ScopeGlobal, nil
}

// IsCursorHookInstalled reports whether hooks.json runs ambient status on
// session start.
func IsCursorHookInstalled(path string) bool {
	settings, err := readSettings(path)
	if err != nil {
		return false
	}
	for _, entry := range getEventEntries(settings, CursorSessionStartEvent) {
		if isAmbientCommand(entry.Command) {
			return true
		}
	}
	return false
}

// InstallCursorHook registers the ambient sessionStart hook.
func InstallCursorHook(path string) error {
	settings, err := readSettings(path)
	if err != nil {
		return err
	}
	if _, ok := settings["version"]; !ok {
		settings["version"] = cursorHooksVersion
	}
	hooks := hooksMap(settings, true)
	entries, _ := hooks[CursorSessionStartEvent].([]any)
	entries = append(stripAmbientEntries(entries), map[string]any{"command": CursorHookCommand})
	hooks[CursorSessionStartEvent] = entries
	return writeSettings(path, settings)
}

// RemoveCursorHook removes ambient sessionStart hooks.
func RemoveCursorHook(path string) error {
	if !IsCursorHookInstalled(path) {
		return nil
	}
	settings, err := readSettings(path)
	if err != nil {
		return err
	}
	entries, _ := hooksMap(settings, false)[CursorSessionStartEvent].([]any)
	pruneHooks(settings, CursorSessionStartEvent, stripAmbientEntries(entries))
	return writeSettings(path, settings)
}

func stripAmbientEntries(entries []any) []any {
	var kept []any
	for _, raw := range entries {
		if entry, ok := parseHookEntry(raw); ok && isAmbientCommand(entry.Command) {
			continue
		}
		kept = append(kept, raw)
	}
	return kept
}

// Detect checks whether the Cursor hook is installed at either scope.
func (c *CursorEnv) Detect() (path, scope string, installed bool) {
	for _, project := range []bool{true, false} {
		hooksPath, s, err := ResolveCursorHooksPath(project)
		if err != nil {
			continue
		}
		if IsCursorHookInstalled(hooksPath) {
			return hooksPath, s, true
		}
	}
	return "", "", false
}

// Install adds the ambient hook to Cursor's hooks.json.
func (c *CursorEnv) Install(project bool) (string, error) {
	hooksPath, _, err := ResolveCursorHooksPath(project)
	if err != nil {
		return "", err
	}
	if err := InstallCursorHook(hooksPath); err != nil {
		return "", err
	}
	return hooksPath, nil
}

// Remove removes the ambient hook from Cursor's hooks.json.
func (c *CursorEnv) Remove(project bool) error {
	hooksPath, _, err := ResolveCursorHooksPath(project)
	if err != nil {
		return err
	}
	return RemoveCursorHook(hooksPath)
}

// Check returns installation status for a specific scope.
func (c *CursorEnv) Check(project bool) (path, scope string, installed bool, err error) {
	hooksPath, s, resolveErr := ResolveCursorHooksPath(project)
	if resolveErr != nil {
		return "", "", false, resolveErr
	}
	return hooksPath, s, IsCursorHookInstalled(hooksPath), nil
}
