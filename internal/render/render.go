// Package render turns a workspace snapshot into the payload an agent host
// expects. Rendering is pure: the same snapshot and profile always produce
// the same output.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/gorewood/ambient/internal/repostatus"
	"github.com/gorewood/ambient/internal/toolprobe"
)

// ErrUnknownProfile is returned for a profile name with no formatter.
var ErrUnknownProfile = errors.New("unknown profile")

// Snapshot is the aggregated workspace state handed to a formatter.
type Snapshot struct {
	Repositories []repostatus.Status      `json:"repositories"`
	Tools        []toolprobe.Availability `json:"tools"`
}

// Profile selects an output shape.
type Profile struct {
	Name        string
	Description string
	format      func(Snapshot) any
}

// Profile names.
const (
	ProfilePlain  = "plain"
	ProfileClaude = "claude"
	ProfileCursor = "cursor"
	ProfileGemini = "gemini"
	ProfileJSON   = "json"
)

// ClaudeHookOutput is the SessionStart hook response for Claude Code.
type ClaudeHookOutput struct {
	HookSpecificOutput ClaudeHookSpecific `json:"hookSpecificOutput"`
}

// ClaudeHookSpecific carries the injected context.
type ClaudeHookSpecific struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// CursorHookOutput is the sessionStart hook response for Cursor.
type CursorHookOutput struct {
	AdditionalContext string `json:"additional_context"`
}

// GeminiHookOutput is the SessionStart hook response for Gemini CLI.
type GeminiHookOutput struct {
	HookSpecificOutput GeminiHookSpecific `json:"hookSpecificOutput"`
}

// GeminiHookSpecific carries the injected context.
type GeminiHookSpecific struct {
	AdditionalContext string `json:"additionalContext"`
}

// envelope wraps non-empty text for a hook profile. Nothing to report
// becomes an empty object.
func envelope(wrap func(string) any) func(Snapshot) any {
	return func(s Snapshot) any {
		text := Text(s)
		if text == "" {
			return struct{}{}
		}
		return wrap(text)
	}
}

var profiles = map[string]Profile{
	ProfilePlain: {
		Name:        ProfilePlain,
		Description: "tagged text block",
		format:      func(s Snapshot) any { return Text(s) },
	},
	ProfileClaude: {
		Name:        ProfileClaude,
		Description: "Claude Code SessionStart hook JSON",
		format: envelope(func(text string) any {
			return ClaudeHookOutput{HookSpecificOutput: ClaudeHookSpecific{
				HookEventName:     "SessionStart",
				AdditionalContext: text,
			}}
		}),
	},
	ProfileCursor: {
		Name:        ProfileCursor,
		Description: "Cursor sessionStart hook JSON",
		format:      envelope(func(text string) any { return CursorHookOutput{AdditionalContext: text} }),
	},
	ProfileGemini: {
		Name:        ProfileGemini,
		Description: "Gemini CLI SessionStart hook JSON",
		format: envelope(func(text string) any {
			return GeminiHookOutput{HookSpecificOutput: GeminiHookSpecific{AdditionalContext: text}}
		}),
	},
	ProfileJSON: {
		Name:        ProfileJSON,
		Description: "structured snapshot",
		format:      func(s Snapshot) any { return s },
	},
}

// LookupProfile returns the named profile.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (valid: %s)", ErrUnknownProfile, name, strings.Join(ProfileNames(), ", "))
	}
	return p, nil
}

// ProfileNames lists the known profiles, sorted.
func ProfileNames() []string {
	names := lo.Keys(profiles)
	slices.Sort(names)
	return names
}

// Render formats the snapshot for profile. The result is a string for text
// profiles and a JSON-encodable value otherwise.
func Render(s Snapshot, p Profile) (any, error) {
	if p.format == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownProfile, p.Name)
	}
	return p.format(s), nil
}

// Bytes renders the snapshot to the bytes written on stdout: text as-is,
// everything else as single-line JSON. Non-empty output ends with a
// newline; empty text stays empty.
func Bytes(s Snapshot, p Profile) ([]byte, error) {
	v, err := Render(s, p)
	if err != nil {
		return nil, err
	}
	if text, ok := v.(string); ok {
		if text == "" {
			return nil, nil
		}
		return []byte(text + "\n"), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding %s output: %w", p.Name, err)
	}
	return buf.Bytes(), nil
}
