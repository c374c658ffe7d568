package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/ambient/internal/render"
	"github.com/gorewood/ambient/internal/repostatus"
	"github.com/gorewood/ambient/internal/session"
	"github.com/gorewood/ambient/internal/toolprobe"
)

// --- Test helpers ---

func makeHost(t *testing.T, text string, calls *atomic.Int32) Host {
	t.Helper()
	gen := session.GeneratorFunc(func(context.Context) (string, bool) {
		calls.Add(1)
		return text, text != ""
	})
	return Host{Coordinator: session.NewCoordinator(context.Background(), nil, gen, nil)}
}

// --- Session context handler tests ---

func TestHandleSessionContext_AppendsOnce(t *testing.T) {
	var calls atomic.Int32
	host := makeHost(t, "workspace ctx", &calls)
	handler := handleSessionContext(host)

	for range 3 {
		_, out, err := handler(context.Background(), &mcp.CallToolRequest{}, SessionContextInput{
			SessionID: "s1",
			System:    []any{"base"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.Injected {
			t.Error("expected context to be injected")
		}
		if !reflect.DeepEqual(out.System, []any{"base", "workspace ctx"}) {
			t.Errorf("System = %v", out.System)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("generations = %d, want 1", got)
	}
}

func TestHandleSessionContext_NoSessionID(t *testing.T) {
	var calls atomic.Int32
	handler := handleSessionContext(makeHost(t, "ctx", &calls))

	_, out, err := handler(context.Background(), &mcp.CallToolRequest{}, SessionContextInput{System: []any{"base"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Injected || len(out.System) != 1 {
		t.Errorf("expected no injection, got %+v", out)
	}
	if calls.Load() != 0 {
		t.Error("generator should not run without a session id")
	}
}

func TestHandleSessionContext_AbsentContext(t *testing.T) {
	var calls atomic.Int32
	handler := handleSessionContext(makeHost(t, "", &calls))

	_, out, err := handler(context.Background(), &mcp.CallToolRequest{}, SessionContextInput{SessionID: "s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Injected {
		t.Error("absent context must not be injected")
	}
	if out.System == nil {
		t.Error("System should be an empty list, not nil")
	}
}

// --- Session event handler tests ---

func TestHandleSessionEvent_ChildSharesParent(t *testing.T) {
	var calls atomic.Int32
	host := makeHost(t, "ctx", &calls)
	ctxHandler := handleSessionContext(host)
	eventHandler := handleSessionEvent(host)

	if _, _, err := ctxHandler(context.Background(), &mcp.CallToolRequest{}, SessionContextInput{SessionID: "parent"}); err != nil {
		t.Fatal(err)
	}

	_, out, err := eventHandler(context.Background(), &mcp.CallToolRequest{}, SessionEventInput{
		Type:       "session.created",
		Properties: map[string]any{"info": map[string]any{"id": "child", "parentID": "parent"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Entries != 2 {
		t.Errorf("Entries = %d, want 2", out.Entries)
	}

	if _, _, err := ctxHandler(context.Background(), &mcp.CallToolRequest{}, SessionContextInput{SessionID: "child"}); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("generations = %d, want 1", got)
	}

	_, out, err = eventHandler(context.Background(), &mcp.CallToolRequest{}, SessionEventInput{
		Type:       "session.deleted",
		Properties: map[string]any{"info": map[string]any{"id": "child"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Entries != 1 || out.Generations != 1 {
		t.Errorf("after delete got %+v", out)
	}
}

func TestHandleSessionEvent_UnknownTypeIgnored(t *testing.T) {
	var calls atomic.Int32
	handler := handleSessionEvent(makeHost(t, "ctx", &calls))

	_, out, err := handler(context.Background(), &mcp.CallToolRequest{}, SessionEventInput{Type: "message.updated"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Entries != 0 {
		t.Errorf("Entries = %d, want 0", out.Entries)
	}
}

// --- Repo status handler tests ---

func TestHandleRepoStatus(t *testing.T) {
	snap := render.Snapshot{
		Repositories: []repostatus.Status{
			{Path: ".", CurrentBranch: "main", DefaultBranch: "main", DefaultBranchSource: repostatus.SourceRemoteHead, CommitsBehind: repostatus.Known(2)},
			{Path: "lib", CurrentBranch: "x", DefaultBranch: "main", DefaultBranchSource: repostatus.SourceFallback, CommitsBehind: repostatus.Unknown},
		},
		Tools: []toolprobe.Availability{{ID: "github", DisplayName: "GitHub CLI", CommandName: "gh", Available: true}},
	}
	handler := handleRepoStatus(Host{Snapshot: func(context.Context) (render.Snapshot, error) { return snap, nil }})

	_, out, err := handler(context.Background(), &mcp.CallToolRequest{}, RepoStatusInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Repositories) != 2 {
		t.Fatalf("got %d repositories", len(out.Repositories))
	}
	if r := out.Repositories[0]; r.CommitsBehind != repostatus.Known(2) || r.DefaultBranchSource != "remote_head" {
		t.Errorf("repo[0] = %+v", r)
	}
	if r := out.Repositories[1]; r.CommitsBehind != repostatus.Unknown {
		t.Errorf("repo[1] behind should be unknown: %+v", r)
	}
	if len(out.Tools) != 1 || out.Tools[0].Command != "gh" {
		t.Errorf("tools = %+v", out.Tools)
	}
	if out.Text != render.Text(snap) {
		t.Error("Text should be the plain rendering")
	}
}

func TestHandleRepoStatus_Errors(t *testing.T) {
	_, _, err := handleRepoStatus(Host{})(context.Background(), &mcp.CallToolRequest{}, RepoStatusInput{})
	if !errors.Is(err, errNoSnapshot) {
		t.Errorf("err = %v, want errNoSnapshot", err)
	}

	boom := errors.New("boom")
	_, _, err = handleRepoStatus(Host{Snapshot: func(context.Context) (render.Snapshot, error) {
		return render.Snapshot{}, boom
	}})(context.Background(), &mcp.CallToolRequest{}, RepoStatusInput{})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

// --- Server wiring ---

func TestNewServer_ListsTools(t *testing.T) {
	var calls atomic.Int32
	clientSession := connect(t, makeHost(t, "ctx", &calls))

	res, err := clientSession.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	slices.Sort(names)
	want := []string{"repo_status", "session_context", "session_event"}
	if !slices.Equal(names, want) {
		t.Errorf("tools = %v, want %v", names, want)
	}
}

func TestHandleSessionContext_NonStringSystemUnchanged(t *testing.T) {
	var calls atomic.Int32
	handler := handleSessionContext(makeHost(t, "ctx", &calls))

	_, out, err := handler(context.Background(), &mcp.CallToolRequest{}, SessionContextInput{
		SessionID: "s1",
		System:    []any{"base", 7.0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Injected || !reflect.DeepEqual(out.System, []any{"base", 7.0}) {
		t.Errorf("expected system unchanged, got %+v", out)
	}
	if calls.Load() != 0 {
		t.Error("generator should not run for a non-string system list")
	}
}

// connect serves host over in-memory transports and returns the client side.
func connect(t *testing.T, host Host) *mcp.ClientSession {
	t.Helper()
	server, err := NewServer("test", host)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = clientSession.Close() })
	return clientSession
}

// callTool calls a tool over the wire and decodes its structured content.
func callTool[Out any](t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) Out {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	if res.IsError {
		t.Fatalf("%s returned a tool error: %+v", name, res.Content)
	}
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("%s: marshal structured content: %v", name, err)
	}
	var out Out
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("%s: decode structured content %s: %v", name, raw, err)
	}
	return out
}

func TestServer_SessionContextOptionalFields(t *testing.T) {
	var calls atomic.Int32
	cs := connect(t, makeHost(t, "ctx", &calls))

	tests := []struct {
		name string
		args map[string]any
		want []any
	}{
		{"missing session id", map[string]any{"system": []any{"base"}}, []any{"base"}},
		{"missing everything", map[string]any{}, []any{}},
		{"non-string system entry", map[string]any{"session_id": "s1", "system": []any{"base", 7}}, []any{"base", 7.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := callTool[SessionContextOutput](t, cs, "session_context", tt.args)
			if out.Injected {
				t.Error("expected no injection")
			}
			if !reflect.DeepEqual(out.System, tt.want) {
				t.Errorf("System = %#v, want %#v", out.System, tt.want)
			}
		})
	}
	if calls.Load() != 0 {
		t.Errorf("generations = %d, want 0", calls.Load())
	}

	out := callTool[SessionContextOutput](t, cs, "session_context", map[string]any{"session_id": "s1", "system": []any{"base"}})
	if !out.Injected || !reflect.DeepEqual(out.System, []any{"base", "ctx"}) {
		t.Errorf("well-formed call got %+v", out)
	}
}

func TestServer_SessionEventOptionalFields(t *testing.T) {
	var calls atomic.Int32
	cs := connect(t, makeHost(t, "ctx", &calls))

	for _, args := range []map[string]any{
		{},
		{"properties": map[string]any{"info": map[string]any{"id": "child", "parentID": "parent"}}},
		{"type": "session.created"},
		{"type": "session.created", "properties": "not an object"},
	} {
		out := callTool[SessionEventOutput](t, cs, "session_event", args)
		if out.Entries != 0 || out.Generations != 0 {
			t.Errorf("args %v changed the cache: %+v", args, out)
		}
	}
}

func TestServer_RepoStatusUnknownBehind(t *testing.T) {
	snap := render.Snapshot{
		Repositories: []repostatus.Status{
			{Path: ".", CurrentBranch: "main", DefaultBranch: "main", DefaultBranchSource: repostatus.SourceRemoteHead, CommitsBehind: repostatus.Known(3)},
			{Path: "lib", CurrentBranch: "x", DefaultBranch: "main", DefaultBranchSource: repostatus.SourceFallback, CommitsBehind: repostatus.Unknown},
		},
	}
	cs := connect(t, Host{Snapshot: func(context.Context) (render.Snapshot, error) { return snap, nil }})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "repo_status", Arguments: map[string]any{}})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %+v", res.Content)
	}
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatal(err)
	}
	var wire struct {
		Repositories []struct {
			CommitsBehind any `json:"commits_behind"`
		} `json:"repositories"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatal(err)
	}
	if len(wire.Repositories) != 2 {
		t.Fatalf("got %s", raw)
	}
	if got := wire.Repositories[0].CommitsBehind; got != 3.0 {
		t.Errorf("repo[0] commits_behind = %#v, want 3", got)
	}
	if got := wire.Repositories[1].CommitsBehind; got != "unknown" {
		t.Errorf("repo[1] commits_behind = %#v, want \"unknown\"", got)
	}
}
