package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LoadOptions controls where Load looks for config files.
type LoadOptions struct {
	// ProjectFile is an explicit project config path (the --config flag).
	ProjectFile string
	// Start is the directory the project file search starts from.
	// Defaults to the working directory.
	Start string
	// SkipGlobal ignores the global config file.
	SkipGlobal bool
}

// settings are the scalar keys handled by viper. They can be overridden by
// AMBIENT_* environment variables (AMBIENT_PROFILE, AMBIENT_SESSION_ENTRYPOINT).
type settings struct {
	Profile         string        `mapstructure:"profile"`
	Remote          string        `mapstructure:"remote"`
	Fetch           bool          `mapstructure:"fetch"`
	NetworkTimeout  time.Duration `mapstructure:"network_timeout"`
	Concurrency     int           `mapstructure:"concurrency"`
	IncludeRoot     bool          `mapstructure:"include_root"`
	ShowUnavailable bool          `mapstructure:"show_unavailable"`
	Session         struct {
		Entrypoint string `mapstructure:"entrypoint"`
	} `mapstructure:"session"`
}

// sections hold keys whose map keys or values are case-sensitive (paths and
// tool ids). viper lowercases map keys, so these are decoded with yaml.v3.
type sections struct {
	Repositories *[]Repository   `yaml:"repositories"`
	Tools        map[string]Tool `yaml:"tools"`
	Artifacts    *[]Artifact     `yaml:"artifacts"`
	Collections  *[]Collection   `yaml:"collections"`
}

// Load reads the global config then the project config; project values win.
func Load(opts LoadOptions) (*Config, error) {
	start := opts.Start
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		start = wd
	}

	projectFile := opts.ProjectFile
	if projectFile == "" {
		projectFile = FindProjectFile(start)
	} else if _, err := os.Stat(projectFile); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", projectFile, err)
	}

	var files []string
	if !opts.SkipGlobal {
		if global := GlobalFile(); global != "" && fileExists(global) {
			files = append(files, global)
		}
	}
	if projectFile != "" {
		abs, err := filepath.Abs(projectFile)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		projectFile = abs
		files = append(files, projectFile)
	}

	cfg, err := loadScalars(files)
	if err != nil {
		return nil, err
	}

	cfg.Workspace = start
	cfg.ProjectFile = projectFile
	if projectFile != "" {
		cfg.Workspace = filepath.Dir(projectFile)
	}

	for _, file := range files {
		if err := mergeSections(cfg, file); err != nil {
			return nil, err
		}
	}
	cfg.resolveArtifactPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindProjectFile walks up from start looking for .ambient.yaml.
func FindProjectFile(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if fileExists(candidate) {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func loadScalars(files []string) (*Config, error) {
	v := viper.New()
	v.SetDefault("profile", DefaultProfile)
	v.SetDefault("remote", DefaultRemote)
	v.SetDefault("fetch", true)
	v.SetDefault("network_timeout", DefaultNetworkTimeout.String())
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("include_root", false)
	v.SetDefault("show_unavailable", false)
	v.SetDefault("session.entrypoint", DefaultEntrypoint)

	v.SetEnvPrefix("AMBIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, file := range files {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &Config{
		Profile:         s.Profile,
		Remote:          s.Remote,
		Fetch:           s.Fetch,
		NetworkTimeout:  s.NetworkTimeout,
		Concurrency:     s.Concurrency,
		IncludeRoot:     s.IncludeRoot,
		ShowUnavailable: s.ShowUnavailable,
		Session:         SessionConfig{Entrypoint: s.Session.Entrypoint},
	}, nil
}

func mergeSections(cfg *Config, file string) error {
	// #nosec G304 -- config files are chosen by the operator
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", file, err)
	}
	var sec sections
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return fmt.Errorf("parsing config %s: %w", file, err)
	}

	if sec.Repositories != nil {
		cfg.Repositories = *sec.Repositories
	}
	if sec.Artifacts != nil {
		cfg.Artifacts = *sec.Artifacts
	}
	if sec.Collections != nil {
		cfg.Collections = *sec.Collections
	}
	if len(sec.Tools) > 0 && cfg.Tools == nil {
		cfg.Tools = make(map[string]Tool, len(sec.Tools))
	}
	for id, tool := range sec.Tools {
		cfg.Tools[id] = tool
	}
	return nil
}

func (c *Config) resolveArtifactPaths() {
	for i := range c.Artifacts {
		art := &c.Artifacts[i]
		art.Source = c.ResolvePath(art.Source)
		for j, target := range art.Targets {
			art.Targets[j] = c.ResolvePath(target)
		}
		if len(art.Overrides) == 0 {
			continue
		}
		resolved := make(map[string]string, len(art.Overrides))
		for path, method := range art.Overrides {
			resolved[c.ResolvePath(path)] = method
		}
		art.Overrides = resolved
	}
	for i := range c.Collections {
		col := &c.Collections[i]
		col.Root = c.ResolvePath(col.Root)
		for j, target := range col.Targets {
			col.Targets[j] = c.ResolvePath(target)
		}
		if len(col.Overrides) == 0 {
			continue
		}
		resolved := make(map[string]string, len(col.Overrides))
		for path, method := range col.Overrides {
			resolved[c.ResolvePath(path)] = method
		}
		col.Overrides = resolved
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
