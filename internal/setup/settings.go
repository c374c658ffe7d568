package setup

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gorewood/ambient/internal/output"
)

// readSettings loads a JSON settings file. A missing or empty file is an
// empty object; anything other than a JSON object is a user error so that
// a hand-edited file is never overwritten.
func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to read "+path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, output.NewUserError(path + " is not a JSON object: " + err.Error())
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

// writeSettings replaces path atomically with the indented settings.
func writeSettings(path string, settings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return output.NewSystemErrorWithCause("failed to create settings directory", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(settings); err != nil {
		return output.NewSystemErrorWithCause("failed to encode settings", err)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString())
	// #nosec G306 -- settings files are user-readable config
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return output.NewSystemErrorWithCause("failed to write settings", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return output.NewSystemErrorWithCause("failed to replace settings", err)
	}
	return nil
}

// hooksMap returns settings["hooks"], creating it when create is set.
func hooksMap(settings map[string]any, create bool) map[string]any {
	hooks, ok := settings["hooks"].(map[string]any)
	if !ok && create {
		hooks = map[string]any{}
		settings["hooks"] = hooks
	}
	return hooks
}

// pruneHooks drops the event key when its list is empty and the hooks
// object when it has no events left.
func pruneHooks(settings map[string]any, event string, remaining []any) {
	hooks := hooksMap(settings, false)
	if hooks == nil {
		return
	}
	if len(remaining) == 0 {
		delete(hooks, event)
	} else {
		hooks[event] = remaining
	}
	if len(hooks) == 0 {
		delete(settings, "hooks")
	}
}
