package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/gorewood/ambient/internal/toolprobe"
)

// ProjectFileName is the per-workspace config file.
const ProjectFileName = ".ambient.yaml"

// Defaults for scalar settings.
const (
	DefaultProfile        = "plain"
	DefaultRemote         = "origin"
	DefaultNetworkTimeout = 5 * time.Second
	DefaultConcurrency    = 4
	DefaultEntrypoint     = ".ambient/session-context"
)

// Config is the merged global and project configuration.
type Config struct {
	// Workspace is the directory relative paths resolve against: the
	// directory holding the project file, or the start directory.
	Workspace string
	// ProjectFile is the project config path, empty when none was found.
	ProjectFile string

	Profile         string
	Remote          string
	Fetch           bool
	NetworkTimeout  time.Duration
	Concurrency     int
	IncludeRoot     bool
	ShowUnavailable bool
	Session         SessionConfig

	Repositories []Repository
	Tools        map[string]Tool
	Artifacts    []Artifact
	Collections  []Collection
}

// SessionConfig configures the session cache host.
type SessionConfig struct {
	// Entrypoint is the executable run once per session to produce context.
	Entrypoint string
}

// Repository is one inspected repository.
type Repository struct {
	Path          string `yaml:"path" json:"path"`
	DefaultBranch string `yaml:"default_branch,omitempty" json:"default_branch,omitempty"`
}

// UnmarshalYAML accepts either a bare path or a mapping.
func (r *Repository) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.Path = node.Value
		return nil
	}
	type plain Repository
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*r = Repository(decoded)
	return nil
}

// Tool is a tool registry entry.
type Tool struct {
	Command      string `yaml:"command" json:"command"`
	DisplayName  string `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
	WhenToUse    string `yaml:"when_to_use,omitempty" json:"when_to_use,omitempty"`
	Instructions string `yaml:"instructions,omitempty" json:"instructions,omitempty"`
}

// Artifact is one distributed capability artifact.
type Artifact struct {
	Source        string            `yaml:"source" json:"source"`
	DefaultMethod string            `yaml:"default_method,omitempty" json:"default_method,omitempty"`
	Targets       []string          `yaml:"targets" json:"targets"`
	Overrides     map[string]string `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// Collection is a directory whose members are discovered by layout:
// skills/<name>/SKILL.md or commands/<name>/command.md.
type Collection struct {
	Kind          string            `yaml:"kind" json:"kind"`
	Root          string            `yaml:"root" json:"root"`
	DefaultMethod string            `yaml:"default_method,omitempty" json:"default_method,omitempty"`
	Targets       []string          `yaml:"targets" json:"targets"`
	Overrides     map[string]string `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// ToolRegistry converts the configured tools for probing.
func (c *Config) ToolRegistry() toolprobe.Registry {
	return lo.MapValues(c.Tools, func(t Tool, _ string) toolprobe.Entry {
		return toolprobe.Entry{
			Command:      t.Command,
			DisplayName:  t.DisplayName,
			Description:  t.Description,
			WhenToUse:    t.WhenToUse,
			Instructions: t.Instructions,
		}
	})
}

// ResolvePath expands a leading ~ and makes path absolute against the
// workspace.
func (c *Config) ResolvePath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.Workspace, path)
	}
	return filepath.Clean(path)
}

// EntrypointPath returns the resolved session entrypoint.
func (c *Config) EntrypointPath() string {
	return c.ResolvePath(c.Session.Entrypoint)
}

// String summarizes the config for debug logs.
func (c *Config) String() string {
	return fmt.Sprintf("workspace=%s project=%s profile=%s repos=%d tools=%d artifacts=%d collections=%d",
		c.Workspace, c.ProjectFile, c.Profile, len(c.Repositories), len(c.Tools), len(c.Artifacts), len(c.Collections))
}
