package main

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gorewood/ambient/internal/config"
	"github.com/gorewood/ambient/internal/distribute"
	"github.com/gorewood/ambient/internal/output"
)

// newDistributeCmd creates the distribute command.
func newDistributeCmd() *cobra.Command {
	var (
		validateFlag bool
		removeFlag   bool
	)
	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Distribute capability artifacts to agent directories",
		Long: `Materialize each configured artifact at all of its targets.

Artifacts are listed by hand under "artifacts" or discovered under
"collections": skills/<name>/SKILL.md lands at <target>/<name> and
commands/<name>/command.md lands at <target>/<name>.md.

A target is either a symlink to the source (link) or a copy with the
front matter stripped (copy). Runs are idempotent: unchanged targets are
left alone.

Examples:
  ambient distribute              # Apply every artifact
  ambient distribute --validate   # Check sources and targets, change nothing
  ambient distribute --remove     # Remove targets ambient manages
  ambient distribute --json       # Report as JSON`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDistribute(cmd, validateFlag, removeFlag)
		},
	}
	cmd.Flags().BoolVar(&validateFlag, "validate", false, "Validate without changing anything")
	cmd.Flags().BoolVar(&removeFlag, "remove", false, "Remove managed targets")
	cmd.MarkFlagsMutuallyExclusive("validate", "remove")
	return cmd
}

// runDistribute executes the distribute command.
func runDistribute(cmd *cobra.Command, validate, remove bool) error {
	printer := newPrinter(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}
	log, closeLog, err := newLogger(cmd, "")
	if err != nil {
		printer.Error(err)
		return err
	}
	defer func() { _ = closeLog() }()

	resolver := distribute.New(afero.NewOsFs(), log)
	artifacts, err := toArtifacts(cfg.Artifacts)
	if err != nil {
		err = output.NewUserErrorWithCause(err.Error(), err)
		printer.Error(err)
		return err
	}
	discovered, err := discoverCollections(resolver, cfg.Collections)
	if err != nil {
		printer.Error(err)
		return err
	}
	artifacts = append(artifacts, discovered...)
	if len(artifacts) == 0 {
		return printer.Success(map[string]any{"message": "No artifacts configured"})
	}

	var report distribute.Report
	switch {
	case remove:
		report = resolver.Remove(cmd.Context(), artifacts)
	case validate:
		report = resolver.Run(cmd.Context(), artifacts, distribute.Validate)
	default:
		report = resolver.Run(cmd.Context(), artifacts, distribute.Apply)
	}

	if printer.IsJSON() {
		if err := printer.WriteJSON(report); err != nil {
			return output.NewSystemErrorWithCause("failed to write report", err)
		}
	} else {
		printReport(printer, report)
	}
	return reportError(report)
}

// toArtifacts converts configured artifacts. Config validation has already
// rejected unknown methods, so errors here are unexpected.
func toArtifacts(configured []config.Artifact) ([]distribute.Artifact, error) {
	artifacts := make([]distribute.Artifact, 0, len(configured))
	for _, a := range configured {
		art := distribute.Artifact{
			Source:    a.Source,
			Targets:   a.Targets,
			Overrides: make(map[string]distribute.Method, len(a.Overrides)),
		}
		if a.DefaultMethod != "" {
			m, err := distribute.ParseMethod(a.DefaultMethod)
			if err != nil {
				return nil, fmt.Errorf("artifact %s: %w", a.Source, err)
			}
			art.DefaultMethod = m
		}
		for path, name := range a.Overrides {
			m, err := distribute.ParseMethod(name)
			if err != nil {
				return nil, fmt.Errorf("artifact %s override %s: %w", a.Source, path, err)
			}
			art.Overrides[path] = m
		}
		artifacts = append(artifacts, art)
	}
	return artifacts, nil
}

// discoverCollections expands each configured collection into one artifact
// per member.
func discoverCollections(resolver *distribute.Resolver, collections []config.Collection) ([]distribute.Artifact, error) {
	var artifacts []distribute.Artifact
	for _, c := range collections {
		kind, err := distribute.ParseKind(c.Kind)
		if err != nil {
			return nil, output.NewUserErrorWithCause(fmt.Sprintf("collection %s: %v", c.Root, err), err)
		}
		col := distribute.Collection{
			Kind:      kind,
			Root:      c.Root,
			Targets:   c.Targets,
			Overrides: make(map[string]distribute.Method, len(c.Overrides)),
		}
		if c.DefaultMethod != "" {
			if col.DefaultMethod, err = distribute.ParseMethod(c.DefaultMethod); err != nil {
				return nil, output.NewUserErrorWithCause(fmt.Sprintf("collection %s: %v", c.Root, err), err)
			}
		}
		for path, name := range c.Overrides {
			m, err := distribute.ParseMethod(name)
			if err != nil {
				return nil, output.NewUserErrorWithCause(fmt.Sprintf("collection %s override %s: %v", c.Root, path, err), err)
			}
			col.Overrides[path] = m
		}
		members, err := resolver.Discover(col)
		if err != nil {
			return nil, output.NewSystemErrorWithCause("failed to read collection "+c.Root, err)
		}
		artifacts = append(artifacts, members...)
	}
	return artifacts, nil
}

func printReport(printer *output.Printer, report distribute.Report) {
	for _, res := range report.Artifacts {
		printer.Section(res.Source)
		rows := lo.Map(res.Actions, func(a distribute.Action, _ int) []string {
			detail := lo.Ternary(a.Error != "", a.Error, a.Detail)
			return []string{a.Target, string(a.Method), string(a.Kind), detail}
		})
		if len(rows) > 0 {
			printer.Table([]string{"Target", "Method", "Action", "Detail"}, rows)
		}
		for _, problem := range res.Problems {
			printer.Println("  invalid: " + problem)
		}
	}
	for _, warning := range report.Warnings() {
		printer.Warn("%s", warning)
	}
}

// reportError maps a report to the command's exit status.
func reportError(report distribute.Report) error {
	switch {
	case report.Invalid():
		return output.NewUserError(fmt.Sprintf("%d artifact problem(s) found", len(report.Problems())))
	case report.Conflict():
		return output.NewConflictError("a target is occupied by content ambient does not manage")
	case report.Failed():
		return output.NewSystemError("one or more targets could not be updated")
	default:
		return nil
	}
}
