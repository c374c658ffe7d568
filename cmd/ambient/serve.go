package main

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorewood/ambient/internal/config"
	ambientmcp "github.com/gorewood/ambient/internal/mcp"
	"github.com/gorewood/ambient/internal/output"
	"github.com/gorewood/ambient/internal/render"
	"github.com/gorewood/ambient/internal/session"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the session context host (MCP over stdio)",
		Long: `Run ambient as a Model Context Protocol (MCP) server over stdio.

The server owns the session cache. Agent plugins forward session.created and
session.deleted events and ask for each session's context before it is sent
to the model. Context is generated once per session by running the session
entry point (session.entrypoint, default .ambient/session-context) and is
shared with child sessions.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "ambient": {
        "command": "ambient",
        "args": ["serve"]
      }
    }
  }

Available tools: session_event, session_context, repo_status`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cmd, config.LogFile())
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	coordinator := newCoordinator(ctx, cfg, log)
	server, err := ambientmcp.NewServer(buildVersion(), ambientmcp.Host{
		Coordinator: coordinator,
		Snapshot: func(ctx context.Context) (render.Snapshot, error) {
			return collectSnapshot(ctx, cfg, log)
		},
	})
	if err != nil {
		cancel()
		coordinator.Wait()
		return output.NewSystemErrorWithCause("failed to start MCP server", err)
	}

	log.Info("serving session context",
		zap.String("workspace", cfg.Workspace),
		zap.String("entrypoint", cfg.EntrypointPath()))
	err = server.Run(ctx, &mcp.StdioTransport{})

	cancel()
	coordinator.Wait()
	return err
}

// newCoordinator wires the session cache to the configured entry point.
func newCoordinator(ctx context.Context, cfg *config.Config, log *zap.Logger) *session.Coordinator {
	gen := session.ExecGenerator{
		Entrypoint: cfg.EntrypointPath(),
		Dir:        cfg.Workspace,
		Logger:     log,
	}
	return session.NewCoordinator(ctx, session.NewCache(), gen, log)
}
