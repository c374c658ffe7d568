package setup

import (
	"os"
	"path/filepath"

	"github.com/gorewood/ambient/internal/output"
)

// ClaudeSessionStartEvent is the Claude Code hook event ambient registers on.
const ClaudeSessionStartEvent = "SessionStart"

// ClaudeHookCommand is the command Claude Code runs when a session starts.
var ClaudeHookCommand = StatusCommand("claude")

// ResolveClaudeSettingsPath returns the Claude Code settings file for the
// scope: .claude/settings.json under the working directory for project,
// ~/.claude/settings.json otherwise.
func ResolveClaudeSettingsPath(project bool) (string, string, error) {
	if project {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", output.NewSystemErrorWithCause("failed to get working directory", err)
		}
		return filepath.Join(cwd, ".claude", "settings.json"), ScopeProject, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", output.NewSystemErrorWithCause("failed to get home directory", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), ScopeGlobal, nil
}

// IsClaudeHookInstalled reports whether any SessionStart hook in the
// settings file runs ambient status.
func IsClaudeHookInstalled(path string) bool {
	settings, err := readSettings(path)
	if err != nil {
		return false
	}
	for _, group := range getSessionStartGroups(settings) {
		for _, hook := range group.Hooks {
			if isAmbientCommand(hook.Command) {
				return true
			}
		}
	}
	return false
}

// InstallClaudeHook registers the ambient SessionStart hook. Earlier ambient
// entries are replaced so reinstalling never duplicates the hook.
func InstallClaudeHook(path string) error {
	settings, err := readSettings(path)
	if err != nil {
		return err
	}
	hooks := hooksMap(settings, true)
	groups, _ := hooks[ClaudeSessionStartEvent].([]any)
	groups = stripAmbientGroups(groups)
	groups = append(groups, map[string]any{
		"matcher": "",
		"hooks": []any{
			map[string]any{"type": "command", "command": ClaudeHookCommand},
		},
	})
	hooks[ClaudeSessionStartEvent] = groups
	return writeSettings(path, settings)
}

// RemoveClaudeHook removes ambient SessionStart hooks. Groups and maps left
// empty are dropped; a missing file is left missing.
func RemoveClaudeHook(path string) error {
	if !IsClaudeHookInstalled(path) {
		return nil
	}
	settings, err := readSettings(path)
	if err != nil {
		return err
	}
	hooks := hooksMap(settings, false)
	if hooks == nil {
		return nil
	}
	groups, ok := hooks[ClaudeSessionStartEvent].([]any)
	if !ok {
		return nil
	}
	pruneHooks(settings, ClaudeSessionStartEvent, stripAmbientGroups(groups))
	return writeSettings(path, settings)
}

// stripAmbientGroups removes ambient hook entries from raw Claude hook
// groups, keeping every other field as written. A group whose hooks were
// all ambient entries is dropped.
func stripAmbientGroups(groups []any) []any {
	var kept []any
	for _, raw := range groups {
		group, ok := raw.(map[string]any)
		if !ok {
			kept = append(kept, raw)
			continue
		}
		rawHooks, _ := group["hooks"].([]any)
		var remaining []any
		for _, rawHook := range rawHooks {
			if entry, ok := parseHookEntry(rawHook); ok && isAmbientCommand(entry.Command) {
				continue
			}
			remaining = append(remaining, rawHook)
		}
		if len(rawHooks) > 0 && len(remaining) == 0 {
			continue
		}
		if len(remaining) != len(rawHooks) {
			group["hooks"] = remaining
		}
		kept = append(kept, group)
	}
	return kept
}
