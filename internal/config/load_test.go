package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("AMBIENT_CONFIG_HOME", home)
	for _, key := range []string{"AMBIENT_PROFILE", "AMBIENT_REMOTE", "AMBIENT_FETCH", "AMBIENT_SESSION_ENTRYPOINT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return home
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	start := t.TempDir()

	cfg, err := Load(LoadOptions{Start: start})
	require.NoError(t, err)

	assert.Equal(t, start, cfg.Workspace)
	assert.Empty(t, cfg.ProjectFile)
	assert.Equal(t, DefaultProfile, cfg.Profile)
	assert.Equal(t, DefaultRemote, cfg.Remote)
	assert.True(t, cfg.Fetch)
	assert.False(t, cfg.IncludeRoot)
	assert.False(t, cfg.ShowUnavailable)
	assert.Equal(t, DefaultNetworkTimeout, cfg.NetworkTimeout)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, filepath.Join(start, DefaultEntrypoint), cfg.EntrypointPath())
	assert.Empty(t, cfg.Tools)
	assert.Empty(t, cfg.Collections)
}

func TestLoad_ProjectFileFoundFromSubdirectory(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ProjectFileName), `
profile: claude
network_timeout: 2s
repositories:
  - services/api
  - path: libs/Core
    default_branch: develop
tools:
  MyTool:
    command: mytool
    display_name: My Tool
`)
	sub := filepath.Join(root, "services", "api")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	cfg, err := Load(LoadOptions{Start: sub})
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Workspace)
	assert.Equal(t, "claude", cfg.Profile)
	assert.Equal(t, 2*time.Second, cfg.NetworkTimeout)
	require.Len(t, cfg.Repositories, 2)
	assert.Equal(t, Repository{Path: "services/api"}, cfg.Repositories[0])
	assert.Equal(t, Repository{Path: "libs/Core", DefaultBranch: "develop"}, cfg.Repositories[1])
	// Tool ids keep their case.
	assert.Equal(t, map[string]Tool{"MyTool": {Command: "mytool", DisplayName: "My Tool"}}, cfg.Tools)
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, "config.yaml"), `
profile: cursor
remote: upstream
tools:
  jq:
    command: jq
  rg:
    command: rg
`)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ProjectFileName), `
profile: plain
tools:
  rg:
    command: ripgrep
`)

	cfg, err := Load(LoadOptions{Start: root})
	require.NoError(t, err)

	assert.Equal(t, "plain", cfg.Profile)
	assert.Equal(t, "upstream", cfg.Remote)
	assert.Equal(t, "jq", cfg.Tools["jq"].Command)
	assert.Equal(t, "ripgrep", cfg.Tools["rg"].Command)
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ProjectFileName), "profile: plain\n")
	t.Setenv("AMBIENT_PROFILE", "json")
	t.Setenv("AMBIENT_SESSION_ENTRYPOINT", "bin/ctx")

	cfg, err := Load(LoadOptions{Start: root})
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Profile)
	assert.Equal(t, filepath.Join(root, "bin", "ctx"), cfg.EntrypointPath())
}

func TestLoad_ArtifactPathsResolved(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ProjectFileName), `
artifacts:
  - source: skills/review
    default_method: copy
    targets:
      - .claude/skills/review
      - .cursor/skills/review
    overrides:
      .cursor/skills/review: link
`)

	cfg, err := Load(LoadOptions{Start: root})
	require.NoError(t, err)
	require.Len(t, cfg.Artifacts, 1)

	art := cfg.Artifacts[0]
	assert.Equal(t, filepath.Join(root, "skills", "review"), art.Source)
	assert.Equal(t, []string{
		filepath.Join(root, ".claude", "skills", "review"),
		filepath.Join(root, ".cursor", "skills", "review"),
	}, art.Targets)
	assert.Equal(t, map[string]string{filepath.Join(root, ".cursor", "skills", "review"): "link"}, art.Overrides)
}

func TestLoad_CollectionPathsResolved(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ProjectFileName), `
collections:
  - kind: skills
    root: skills
    targets:
      - .claude/skills
    overrides:
      .claude/skills: copy
  - kind: commands
    root: commands
    default_method: copy
    targets: [.claude/commands]
`)

	cfg, err := Load(LoadOptions{Start: root})
	require.NoError(t, err)
	require.Len(t, cfg.Collections, 2)
	assert.Equal(t, Collection{
		Kind:      "skills",
		Root:      filepath.Join(root, "skills"),
		Targets:   []string{filepath.Join(root, ".claude", "skills")},
		Overrides: map[string]string{filepath.Join(root, ".claude", "skills"): "copy"},
	}, cfg.Collections[0])
	assert.Equal(t, "copy", cfg.Collections[1].DefaultMethod)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(LoadOptions{ProjectFile: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ProjectFileName), "repositories: [unterminated\n")

	_, err := Load(LoadOptions{Start: root})
	require.Error(t, err)
}

func TestLoad_UnknownProfileRejected(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ProjectFileName), "profile: emacs\n")

	_, err := Load(LoadOptions{Start: root})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "emacs")
}

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cfg := &Config{Workspace: "/work"}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a/b", filepath.Join("/work", "a", "b")},
		{"/abs/x", "/abs/x"},
		{"~/skills", filepath.Join(home, "skills")},
		{"./a/../c", filepath.Join("/work", "c")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.ResolvePath(tt.in))
		})
	}
}
