package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/gorewood/ambient/internal/distribute"
	"github.com/gorewood/ambient/internal/render"
	"github.com/gorewood/ambient/internal/toolprobe"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks the merged config. All problems are reported together.
func (c *Config) Validate() error {
	var problems []string

	if _, err := render.LookupProfile(c.Profile); err != nil {
		problems = append(problems, fmt.Sprintf("profile %q: %v", c.Profile, err))
	}
	if c.NetworkTimeout <= 0 {
		problems = append(problems, "network_timeout must be positive")
	}
	if c.Concurrency < 1 {
		problems = append(problems, "concurrency must be at least 1")
	}
	if strings.TrimSpace(c.Remote) == "" {
		problems = append(problems, "remote must not be empty")
	}

	for i, repo := range c.Repositories {
		if strings.TrimSpace(repo.Path) == "" {
			problems = append(problems, fmt.Sprintf("repositories[%d]: path is required", i))
		}
	}

	problems = append(problems, toolProblems(c.ToolRegistry())...)

	for i, art := range c.Artifacts {
		problems = append(problems, validateArtifact(i, art)...)
	}
	for i, col := range c.Collections {
		problems = append(problems, validateCollection(i, col)...)
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w:\n  %s", ErrInvalid, strings.Join(problems, "\n  "))
}

func toolProblems(registry toolprobe.Registry) []string {
	err := registry.Validate()
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return []string{"tools." + err.Error()}
	}
	return lo.Map(joined.Unwrap(), func(e error, _ int) string { return "tools." + e.Error() })
}

func validateCollection(index int, col Collection) []string {
	var problems []string
	prefix := fmt.Sprintf("collections[%d]", index)
	if _, err := distribute.ParseKind(col.Kind); err != nil {
		problems = append(problems, fmt.Sprintf("%s: kind: %v", prefix, err))
	}
	if col.Root == "" {
		problems = append(problems, prefix+": root is required")
	}
	if len(col.Targets) == 0 {
		problems = append(problems, prefix+": at least one target is required")
	}
	return append(problems, methodProblems(prefix, col.DefaultMethod, col.Overrides)...)
}

func methodProblems(prefix, defaultMethod string, overrides map[string]string) []string {
	var problems []string
	if defaultMethod != "" {
		if _, err := distribute.ParseMethod(defaultMethod); err != nil {
			problems = append(problems, fmt.Sprintf("%s: default_method: %v", prefix, err))
		}
	}
	overridden := lo.Keys(overrides)
	slices.Sort(overridden)
	for _, path := range overridden {
		if _, err := distribute.ParseMethod(overrides[path]); err != nil {
			problems = append(problems, fmt.Sprintf("%s: override %s: %v", prefix, path, err))
		}
	}
	return problems
}

func validateArtifact(index int, art Artifact) []string {
	var problems []string
	prefix := fmt.Sprintf("artifacts[%d]", index)
	if art.Source == "" {
		problems = append(problems, prefix+": source is required")
	}
	if len(art.Targets) == 0 {
		problems = append(problems, prefix+": at least one target is required")
	}
	problems = append(problems, methodProblems(prefix, art.DefaultMethod, art.Overrides)...)
	if dupes := lo.FindDuplicates(art.Targets); len(dupes) > 0 {
		problems = append(problems, fmt.Sprintf("%s: duplicate targets %v", prefix, dupes))
	}
	return problems
}
