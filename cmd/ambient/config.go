package main

import (
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/gorewood/ambient/internal/config"
	"github.com/gorewood/ambient/internal/render"
)

// newConfigCmd creates the config command.
func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration ambient resolved from the global config file, the
nearest ` + config.ProjectFileName + ` and AMBIENT_* environment variables.

Examples:
  ambient config          # Human-readable summary
  ambient config --json   # Full configuration as JSON`,
		RunE: runConfig,
	}
}

// configResult is the JSON shape of the effective configuration.
type configResult struct {
	Workspace       string                 `json:"workspace"`
	ProjectFile     string                 `json:"project_file,omitempty"`
	GlobalFile      string                 `json:"global_file"`
	Profile         string                 `json:"profile"`
	Profiles        []string               `json:"profiles"`
	Remote          string                 `json:"remote"`
	Fetch           bool                   `json:"fetch"`
	NetworkTimeout  string                 `json:"network_timeout"`
	Concurrency     int                    `json:"concurrency"`
	IncludeRoot     bool                   `json:"include_root"`
	ShowUnavailable bool                   `json:"show_unavailable"`
	Entrypoint      string                 `json:"entrypoint"`
	Repositories    []config.Repository    `json:"repositories"`
	Tools           map[string]config.Tool `json:"tools"`
	Artifacts       []config.Artifact      `json:"artifacts"`
	Collections     []config.Collection    `json:"collections"`
}

func runConfig(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	result := configResult{
		Workspace:       cfg.Workspace,
		ProjectFile:     cfg.ProjectFile,
		GlobalFile:      config.GlobalFile(),
		Profile:         cfg.Profile,
		Profiles:        render.ProfileNames(),
		Remote:          cfg.Remote,
		Fetch:           cfg.Fetch,
		NetworkTimeout:  cfg.NetworkTimeout.String(),
		Concurrency:     cfg.Concurrency,
		IncludeRoot:     cfg.IncludeRoot,
		ShowUnavailable: cfg.ShowUnavailable,
		Entrypoint:      cfg.EntrypointPath(),
		Repositories:    cfg.Repositories,
		Tools:           cfg.Tools,
		Artifacts:       cfg.Artifacts,
		Collections:     cfg.Collections,
	}
	if printer.IsJSON() {
		return printer.WriteJSON(result)
	}

	printer.Section("Configuration")
	printer.KeyValue("Workspace", result.Workspace)
	printer.KeyValue("Project file", lo.Ternary(result.ProjectFile != "", result.ProjectFile, "(none)"))
	printer.KeyValue("Global file", result.GlobalFile)
	printer.KeyValue("Profile", result.Profile+" (available: "+strings.Join(result.Profiles, ", ")+")")
	printer.KeyValue("Remote", result.Remote)
	printer.KeyValue("Fetch", strconv.FormatBool(result.Fetch))
	printer.KeyValue("Network timeout", result.NetworkTimeout)
	printer.KeyValue("Concurrency", strconv.Itoa(result.Concurrency))
	printer.KeyValue("Include root", strconv.FormatBool(result.IncludeRoot))
	printer.KeyValue("Entry point", result.Entrypoint)

	if len(result.Repositories) > 0 {
		printer.Section("Repositories")
		printer.Table([]string{"Path", "Default branch"}, lo.Map(result.Repositories, func(r config.Repository, _ int) []string {
			return []string{r.Path, lo.Ternary(r.DefaultBranch != "", r.DefaultBranch, "-")}
		}))
	}

	if len(result.Tools) > 0 {
		printer.Section("Tools")
		ids := lo.Keys(result.Tools)
		slices.Sort(ids)
		printer.Table([]string{"ID", "Command", "Name"}, lo.Map(ids, func(id string, _ int) []string {
			t := result.Tools[id]
			return []string{id, t.Command, lo.Ternary(t.DisplayName != "", t.DisplayName, id)}
		}))
	}

	if len(result.Artifacts) > 0 {
		printer.Section("Artifacts")
		printer.Table([]string{"Source", "Method", "Targets"}, lo.Map(result.Artifacts, func(a config.Artifact, _ int) []string {
			return []string{a.Source, lo.Ternary(a.DefaultMethod != "", a.DefaultMethod, "link"), strconv.Itoa(len(a.Targets))}
		}))
	}
	if len(result.Collections) > 0 {
		printer.Section("Collections")
		printer.Table([]string{"Kind", "Root", "Method", "Targets"}, lo.Map(result.Collections, func(c config.Collection, _ int) []string {
			return []string{c.Kind, c.Root, lo.Ternary(c.DefaultMethod != "", c.DefaultMethod, "link"), strconv.Itoa(len(c.Targets))}
		}))
	}
	return nil
}
