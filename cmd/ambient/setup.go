package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gorewood/ambient/internal/output"
	"github.com/gorewood/ambient/internal/setup"
)

// integrationInfo describes an available integration.
type integrationInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Installed   bool   `json:"installed"`
	Scope       string `json:"scope,omitempty"`
	Location    string `json:"location,omitempty"`
}

// newSetupCmd creates the setup parent command with one subcommand per
// agent host.
func newSetupCmd() *cobra.Command {
	var listFlag bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Install session-start hooks in agent hosts",
		Long: `Install ambient into agent hosts so each new session starts with workspace
context.

Flags:
  --list    List available integrations and their status

Examples:
  ambient setup --list           # List available integrations
  ambient setup claude           # Install the Claude Code hook globally
  ambient setup claude --project # Install for the current project only
  ambient setup claude --check   # Check installation status
  ambient setup cursor --remove  # Remove the Cursor hook`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listFlag {
				return runSetupList(cmd)
			}
			return cmd.Help()
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List available integrations and their status")

	for _, env := range setup.AllAgentEnvs() {
		cmd.AddCommand(newSetupEnvCmd(env))
	}
	return cmd
}

// newSetupEnvCmd creates the setup subcommand for one agent host.
func newSetupEnvCmd(env setup.AgentEnv) *cobra.Command {
	var (
		projectFlag bool
		checkFlag   bool
		removeFlag  bool
		dryRunFlag  bool
	)

	cmd := &cobra.Command{
		Use:   env.Name(),
		Short: "Install " + env.DisplayName() + " integration",
		Long: fmt.Sprintf(`Install ambient integration with %[1]s.

Registers a session-start hook that runs '%[2]s', so each %[1]s
session starts with workspace context. Existing settings and hooks are kept.

By default, installs to your global settings. Use --project to install
for the current directory only.`, env.DisplayName(), setup.StatusCommand(env.Profile())),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetupEnv(cmd, env, projectFlag, checkFlag, removeFlag, dryRunFlag)
		},
	}

	cmd.Flags().BoolVar(&projectFlag, "project", false, "Install for this project only")
	cmd.Flags().BoolVar(&checkFlag, "check", false, "Check installation status without changes")
	cmd.Flags().BoolVar(&removeFlag, "remove", false, "Remove the integration")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show what would be done without doing it")
	cmd.MarkFlagsMutuallyExclusive("check", "remove")

	return cmd
}

// runSetupEnv executes a setup subcommand.
func runSetupEnv(cmd *cobra.Command, env setup.AgentEnv, project, check, remove, dryRun bool) error {
	printer := newPrinter(cmd)

	path, scope, installed, err := env.Check(project)
	if err != nil {
		printer.Error(err)
		return err
	}

	switch {
	case check:
		return runSetupCheck(printer, env, path, scope, installed)
	case remove:
		return runSetupRemove(printer, env, project, path, scope, installed, dryRun)
	default:
		return runSetupInstall(printer, env, project, path, scope, installed, dryRun)
	}
}

// runSetupCheck reports the installation status.
func runSetupCheck(printer *output.Printer, env setup.AgentEnv, path, scope string, installed bool) error {
	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"integration": env.Name(),
			"installed":   installed,
			"location":    path,
			"scope":       scope,
		})
	}

	printer.Section(env.DisplayName() + " Integration Status")
	printer.KeyValue("Scope", scope)
	printer.KeyValue("Location", path)
	printer.KeyValue("Status", installedLabel(installed))
	return nil
}

// runSetupRemove removes the ambient hook.
func runSetupRemove(printer *output.Printer, env setup.AgentEnv, project bool, path, scope string, installed, dryRun bool) error {
	if !installed {
		if printer.IsJSON() {
			return printer.Success(map[string]any{
				"status":      "not_installed",
				"integration": env.Name(),
				"scope":       scope,
			})
		}
		return printer.Success(map[string]any{
			"message": env.DisplayName() + " integration is not installed",
		})
	}

	if dryRun {
		if printer.IsJSON() {
			return printer.Success(map[string]any{
				"status":      "dry_run",
				"integration": env.Name(),
				"action":      "would remove",
				"location":    path,
				"scope":       scope,
			})
		}
		printer.Section("Dry Run")
		printer.KeyValue("Action", "would remove ambient hook")
		printer.KeyValue("Location", path)
		return nil
	}

	if err := env.Remove(project); err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"status":      "removed",
			"integration": env.Name(),
			"location":    path,
			"scope":       scope,
		})
	}
	return printer.Success(map[string]any{
		"message": fmt.Sprintf("Removed %s integration from %s", env.DisplayName(), path),
	})
}

// runSetupInstall installs or refreshes the ambient hook.
func runSetupInstall(printer *output.Printer, env setup.AgentEnv, project bool, path, scope string, installed, dryRun bool) error {
	if dryRun {
		action := "would install"
		if installed {
			action = "would update (already installed)"
		}

		if printer.IsJSON() {
			return printer.Success(map[string]any{
				"status":            "dry_run",
				"integration":       env.Name(),
				"action":            action,
				"location":          path,
				"scope":             scope,
				"already_installed": installed,
			})
		}
		printer.Section("Dry Run")
		printer.KeyValue("Action", action)
		printer.KeyValue("Location", path)
		return nil
	}

	if _, err := env.Install(project); err != nil {
		printer.Error(err)
		return err
	}

	msg := "Installed"
	if installed {
		msg = "Updated"
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"status":      "installed",
			"integration": env.Name(),
			"location":    path,
			"scope":       scope,
		})
	}
	return printer.Success(map[string]any{
		"message": fmt.Sprintf("%s %s integration at %s", msg, env.DisplayName(), path),
	})
}

// runSetupList lists available integrations and their status.
func runSetupList(cmd *cobra.Command) error {
	printer := newPrinter(cmd)

	var integrations []integrationInfo
	for _, env := range setup.AllAgentEnvs() {
		path, scope, installed := env.Detect()
		integrations = append(integrations, integrationInfo{
			Name:        env.Name(),
			Description: env.DisplayName() + " session-start context",
			Installed:   installed,
			Scope:       scope,
			Location:    path,
		})
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"integrations": integrations,
		})
	}

	printer.Section("Available Integrations")
	headers := []string{"Name", "Description", "Status", "Scope"}
	rows := make([][]string, 0, len(integrations))
	for _, integ := range integrations {
		scope := "-"
		if integ.Scope != "" {
			scope = integ.Scope
		}
		rows = append(rows, []string{integ.Name, integ.Description, installedLabel(integ.Installed), scope})
	}
	printer.Table(headers, rows)
	return nil
}

func installedLabel(installed bool) string {
	if installed {
		return "installed"
	}
	return "not installed"
}
