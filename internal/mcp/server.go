// Package mcp hosts the session cache over the Model Context Protocol.
// Agent plugins forward lifecycle events and context requests to it as tool
// calls, so one long-lived process owns the cache for every session.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/ambient/internal/render"
	"github.com/gorewood/ambient/internal/session"
)

// SnapshotFunc collects the current workspace snapshot.
type SnapshotFunc func(ctx context.Context) (render.Snapshot, error)

// Host is what the tools operate on.
type Host struct {
	Coordinator *session.Coordinator
	Snapshot    SnapshotFunc
}

// NewServer creates an MCP server with all ambient tools registered.
func NewServer(version string, host Host) (*mcp.Server, error) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ambient",
		Version: version,
	}, nil)
	if err := registerTools(server, host); err != nil {
		return nil, err
	}
	return server, nil
}

func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// cacheAnnotations marks tools that only touch the in-memory session cache.
func cacheAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		IdempotentHint:  true,
		OpenWorldHint:   boolPtr(false),
	}
}

func registerTools(server *mcp.Server, host Host) error {
	statusSchema, err := repoStatusOutputSchema()
	if err != nil {
		return fmt.Errorf("repo_status output schema: %w", err)
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "session_event",
		Description: "Forward a session lifecycle event (session.created, session.deleted). Child sessions share their parent's cached context; deleted sessions free their slot.",
		Annotations: cacheAnnotations(),
	}, handleSessionEvent(host))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "session_context",
		Description: "Return the system prompt list with this session's workspace context appended. Context is generated once per session and cached.",
		Annotations: cacheAnnotations(),
	}, handleSessionContext(host))

	mcp.AddTool(server, &mcp.Tool{
		Name:         "repo_status",
		Description:  "Inspect the configured repositories and tools now, bypassing the session cache.",
		Annotations:  readOnlyAnnotations(),
		OutputSchema: statusSchema,
	}, handleRepoStatus(host))
	return nil
}
