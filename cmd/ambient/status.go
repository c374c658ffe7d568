package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorewood/ambient/internal/output"
	"github.com/gorewood/ambient/internal/render"
)

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	var profileFlag string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print workspace context for an agent",
		Long: fmt.Sprintf(`Inspect the configured repositories and tools and print the result as
agent context on stdout.

The profile selects the output shape. Hook integrations use the profile of
their host so the output can be returned to it verbatim. Diagnostics go to
stderr.

Profiles: %s

Examples:
  ambient status                    # Plain text context
  ambient status --profile claude   # Claude Code SessionStart hook output
  ambient status --json             # Structured snapshot`, strings.Join(render.ProfileNames(), ", ")),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, profileFlag)
		},
	}
	cmd.Flags().StringVarP(&profileFlag, "profile", "p", "", "Output profile (default from config)")
	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, profileName string) error {
	printer := newPrinter(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	switch {
	case profileName != "":
	case isJSONMode(cmd):
		profileName = render.ProfileJSON
	default:
		profileName = cfg.Profile
	}
	profile, err := render.LookupProfile(profileName)
	if err != nil {
		err = output.NewUserErrorWithCause(err.Error(), err)
		printer.Error(err)
		return err
	}

	log, closeLog, err := newLogger(cmd, "")
	if err != nil {
		printer.Error(err)
		return err
	}
	defer func() { _ = closeLog() }()
	log.Debug("loaded config", zap.String("config", cfg.String()))

	snap, err := collectSnapshot(cmd.Context(), cfg, log)
	if err != nil {
		printer.Error(err)
		return err
	}

	data, err := render.Bytes(snap, profile)
	if err != nil {
		err = output.NewSystemErrorWithCause("failed to render context", err)
		printer.Error(err)
		return err
	}
	printer.Print("%s", data)
	return nil
}
