// Package main provides the entry point for the ambient CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorewood/ambient/internal/config"
	"github.com/gorewood/ambient/internal/logging"
	"github.com/gorewood/ambient/internal/output"
)

// Build info set via ldflags at build time by goreleaser.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	return boolFlag(cmd, "json")
}

func boolFlag(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup(name)
	}
	return flag != nil && flag.Value.String() == "true"
}

func stringFlag(cmd *cobra.Command, name string) string {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup(name)
	}
	if flag == nil {
		return ""
	}
	return flag.Value.String()
}

// useColor resolves --color against the command's stdout.
func useColor(cmd *cobra.Command) bool {
	return output.ResolveColorMode(stringFlag(cmd, "color"), output.IsTTY(cmd.OutOrStdout()))
}

// newPrinter returns a printer for cmd with errors and warnings on stderr.
func newPrinter(cmd *cobra.Command) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).WithStderr(cmd.ErrOrStderr())
}

// newLogger builds the operator logger. Diagnostics never go to stdout.
// The returned func flushes it and closes the log file.
func newLogger(cmd *cobra.Command, file string) (*zap.Logger, func() error, error) {
	log, closeLog, err := logging.New(logging.Options{
		Debug:   boolFlag(cmd, "debug"),
		File:    file,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, output.NewSystemErrorWithCause("failed to set up logging", err)
	}
	return log, closeLog, nil
}

// loadConfig loads the merged configuration, honouring --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ProjectFile: stringFlag(cmd, "config")})
	if err != nil {
		return nil, output.NewUserErrorWithCause(err.Error(), err)
	}
	return cfg, nil
}

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// newRootCmd creates the root command for the ambient CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ambient",
		Short: "Workspace context for agent sessions",
		Long: `Ambient - workspace context for coding-agent sessions.

Ambient gives every agent session the same picture of the workspace:
  - Branch, default branch, local changes and commits behind for each repository
  - Which command-line tools are installed and when to use them
  - Capability artifacts (skills) distributed to every agent's directory

Context is generated once per session and shared with child sessions.

Most commands support --json for structured output.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isJSONMode(cmd) {
				printer := output.NewPrinter(cmd.OutOrStdout(), true, false)
				err := output.NewUserError("no command specified. Run 'ambient --help' for usage")
				printer.Error(err)
				return err
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("config", "", "Project config file (default: nearest "+config.ProjectFileName+")")
	cmd.PersistentFlags().Bool("debug", false, "Log debug diagnostics to stderr")
	cmd.PersistentFlags().String("color", "auto", "Colour output: auto, always or never")

	lipgloss.SetHasDarkBackground(true)

	addCommandGroups(cmd)
	addCommands(cmd)

	return cmd
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "agent", Title: "Agent Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "admin", Title: "Admin Commands:"})
}

// addCommands adds all subcommands with their group assignments.
func addCommands(cmd *cobra.Command) {
	addGroupedCommand(cmd, newStatusCmd(), "core")
	addGroupedCommand(cmd, newDistributeCmd(), "core")

	addGroupedCommand(cmd, newServeCmd(), "agent")

	addGroupedCommand(cmd, newSetupCmd(), "admin")
	addGroupedCommand(cmd, newConfigCmd(), "admin")
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent *cobra.Command, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}
