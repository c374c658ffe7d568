package mcp

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/samber/lo"

	"github.com/gorewood/ambient/internal/render"
	"github.com/gorewood/ambient/internal/repostatus"
	"github.com/gorewood/ambient/internal/toolprobe"
)

var errNoSnapshot = errors.New("repository status is not available on this host")

// --- Session event tool ---

// SessionEventInput is a lifecycle event as emitted by the agent host.
// Every field is optional: an event missing what it needs is ignored.
type SessionEventInput struct {
	Type       string `json:"type,omitempty"       jsonschema:"event type, e.g. session.created or session.deleted"`
	Properties any    `json:"properties,omitempty" jsonschema:"event properties; info.id and info.parentID identify the session"`
}

// SessionEventOutput reports cache state after the event.
type SessionEventOutput struct {
	Entries     int   `json:"entries"     jsonschema:"number of cached session slots"`
	Generations int64 `json:"generations" jsonschema:"context generations started since the host started"`
}

func handleSessionEvent(host Host) mcp.ToolHandlerFor[SessionEventInput, SessionEventOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input SessionEventInput) (*mcp.CallToolResult, SessionEventOutput, error) {
		payload := map[string]any{"type": input.Type}
		if input.Properties != nil {
			payload["properties"] = input.Properties
		}
		host.Coordinator.HandleEvent(payload)

		stats := host.Coordinator.Stats()
		return nil, SessionEventOutput{Entries: stats.Entries, Generations: stats.Generations}, nil
	}
}

// --- Session context tool ---

// SessionContextInput asks for a session's context. A missing session id
// or a system list holding anything but strings returns system unchanged.
type SessionContextInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"agent session identifier"`
	System    []any  `json:"system,omitempty"     jsonschema:"current system prompt parts, all strings"`
}

// SessionContextOutput is the system prompt list after injection.
type SessionContextOutput struct {
	System   []any `json:"system"   jsonschema:"system prompt parts, with workspace context appended when available"`
	Injected bool  `json:"injected" jsonschema:"whether context was appended"`
}

func handleSessionContext(host Host) mcp.ToolHandlerFor[SessionContextInput, SessionContextOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SessionContextInput) (*mcp.CallToolResult, SessionContextOutput, error) {
		system := append([]any{}, input.System...)
		payload := map[string]any{"sessionID": input.SessionID, "system": system}
		host.Coordinator.InjectRaw(ctx, payload)

		out, _ := payload["system"].([]any)
		return nil, SessionContextOutput{System: out, Injected: len(out) > len(system)}, nil
	}
}

// --- Repo status tool ---

// RepoStatusInput takes no parameters.
type RepoStatusInput struct{}

// RepoSummary is one repository's state.
type RepoSummary struct {
	Path                string `json:"path"                  jsonschema:"repository path relative to the workspace"`
	CurrentBranch       string `json:"current_branch"        jsonschema:"checked-out branch, or detached @ <sha>"`
	DefaultBranch       string `json:"default_branch"        jsonschema:"default branch name"`
	DefaultBranchSource string `json:"default_branch_source" jsonschema:"how the default branch was determined"`
	UncommittedChanges  bool   `json:"uncommitted_changes"   jsonschema:"staged, unstaged or untracked changes exist"`
	UncommittedUnknown  bool   `json:"uncommitted_unknown"   jsonschema:"git status failed, so uncommitted_changes means nothing"`
	// CommitsBehind is a number, or "unknown" when the remote could not be
	// checked. Its schema comes from behindSchema.
	CommitsBehind repostatus.Behind `json:"commits_behind"`
}

// behindSchema describes repostatus.Behind on the wire.
var behindSchema = &jsonschema.Schema{
	Description: `commits on the default branch missing locally, or "unknown" when the remote could not be checked`,
	OneOf: []*jsonschema.Schema{
		{Type: "integer", Minimum: new(float64)},
		{Type: "string", Enum: []any{"unknown"}},
	},
}

// repoStatusOutputSchema is the inferred output schema with Behind mapped
// to behindSchema.
func repoStatusOutputSchema() (*jsonschema.Schema, error) {
	return jsonschema.For[RepoStatusOutput](&jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[repostatus.Behind](): behindSchema,
		},
	})
}

// ToolSummary is one tool's availability.
type ToolSummary struct {
	ID        string `json:"id"        jsonschema:"registry id"`
	Name      string `json:"name"      jsonschema:"display name"`
	Command   string `json:"command"   jsonschema:"command looked up on PATH"`
	Available bool   `json:"available" jsonschema:"whether the command was found"`
}

// RepoStatusOutput is a fresh workspace snapshot.
type RepoStatusOutput struct {
	Repositories []RepoSummary `json:"repositories" jsonschema:"inspected repositories in configured order"`
	Tools        []ToolSummary `json:"tools"        jsonschema:"registered tools"`
	Text         string        `json:"text"         jsonschema:"the snapshot rendered as agent context"`
}

func handleRepoStatus(host Host) mcp.ToolHandlerFor[RepoStatusInput, RepoStatusOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ RepoStatusInput) (*mcp.CallToolResult, RepoStatusOutput, error) {
		if host.Snapshot == nil {
			return nil, RepoStatusOutput{}, errNoSnapshot
		}
		snap, err := host.Snapshot(ctx)
		if err != nil {
			return nil, RepoStatusOutput{}, fmt.Errorf("collecting status: %w", err)
		}
		return nil, toRepoStatusOutput(snap), nil
	}
}

func toRepoStatusOutput(snap render.Snapshot) RepoStatusOutput {
	return RepoStatusOutput{
		Repositories: lo.Map(snap.Repositories, func(st repostatus.Status, _ int) RepoSummary {
			return RepoSummary{
				Path:                st.Path,
				CurrentBranch:       st.CurrentBranch,
				DefaultBranch:       st.DefaultBranch,
				DefaultBranchSource: string(st.DefaultBranchSource),
				UncommittedChanges:  st.UncommittedChanges,
				UncommittedUnknown:  st.UncommittedUnknown,
				CommitsBehind:       st.CommitsBehind,
			}
		}),
		Tools: lo.Map(snap.Tools, func(av toolprobe.Availability, _ int) ToolSummary {
			return ToolSummary{ID: av.ID, Name: av.DisplayName, Command: av.CommandName, Available: av.Available}
		}),
		Text: render.Text(snap),
	}
}
