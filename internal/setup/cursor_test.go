package setup

import (
	"path/filepath"
	"testing"
)

func TestInstallCursorHook(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cursor", "hooks.json")
	writeSettingsJSON(t, path, map[string]any{
		"version": 1,
		"hooks": map[string]any{
			"sessionStart":         []any{map[string]any{"command": "./warmup.sh"}},
			"beforeShellExecution": []any{map[string]any{"command": "./audit.sh"}},
		},
	})

	for range 2 {
		if err := InstallCursorHook(path); err != nil {
			t.Fatalf("InstallCursorHook() error: %v", err)
		}
	}
	settings := readSettingsJSON(t, path)
	entries := getEventEntries(settings, CursorSessionStartEvent)
	if len(entries) != 2 || entries[0].Command != "./warmup.sh" || entries[1].Command != CursorHookCommand {
		t.Errorf("sessionStart = %+v", entries)
	}
	if len(getEventEntries(settings, "beforeShellExecution")) != 1 {
		t.Error("other events should be untouched")
	}
}

func TestInstallCursorHook_NewFileSetsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hooks.json")
	if err := InstallCursorHook(path); err != nil {
		t.Fatal(err)
	}
	settings := readSettingsJSON(t, path)
	if v, _ := settings["version"].(float64); v != cursorHooksVersion {
		t.Errorf("version = %v", settings["version"])
	}
	if !IsCursorHookInstalled(path) {
		t.Error("hook should be installed")
	}
}

func TestRemoveCursorHook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hooks.json")
	if err := InstallCursorHook(path); err != nil {
		t.Fatal(err)
	}
	if err := RemoveCursorHook(path); err != nil {
		t.Fatal(err)
	}
	settings := readSettingsJSON(t, path)
	if IsCursorHookInstalled(path) {
		t.Error("hook should be removed")
	}
	if _, ok := settings["hooks"]; ok {
		t.Errorf("empty hooks should be dropped: %v", settings)
	}
	if _, ok := settings["version"]; !ok {
		t.Error("version should be kept")
	}
}
