package repostatus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const gitmodules = `[submodule "core"]
	path = libs/core
	url = https://example.com/core.git
	branch = develop
[submodule "api"]
	path = services/api
	url = https://example.com/api.git
`

func TestPlan(t *testing.T) {
	withModules := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(withModules, ".gitmodules"), []byte(gitmodules), 0o600))
	bare := t.TempDir()

	tests := []struct {
		name        string
		workspace   string
		includeRoot bool
		configured  []Repository
		want        []Repository
	}{
		{
			name:        "configured with root",
			workspace:   withModules,
			includeRoot: true,
			configured:  []Repository{{Path: "x"}, {Path: "y", DefaultBranch: "dev"}},
			want:        []Repository{{Path: "."}, {Path: "x"}, {Path: "y", DefaultBranch: "dev"}},
		},
		{
			name:       "configured without root",
			workspace:  withModules,
			configured: []Repository{{Path: "x"}},
			want:       []Repository{{Path: "x"}},
		},
		{
			name:        "submodules when nothing configured",
			workspace:   withModules,
			includeRoot: true,
			want:        []Repository{{Path: "."}, {Path: "libs/core"}, {Path: "services/api"}},
		},
		{
			name:        "root already configured keeps its override",
			workspace:   bare,
			includeRoot: true,
			configured:  []Repository{{Path: "x"}, {Path: "./", DefaultBranch: "trunk"}},
			want:        []Repository{{Path: "x"}, {Path: "./", DefaultBranch: "trunk"}},
		},
		{
			name:       "duplicates collapse",
			workspace:  bare,
			configured: []Repository{{Path: "x"}, {Path: "x/"}, {Path: "y"}},
			want:       []Repository{{Path: "x"}, {Path: "y"}},
		},
		{
			name:        "nothing at all",
			workspace:   bare,
			includeRoot: false,
			want:        []Repository{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Plan(tt.workspace, tt.includeRoot, tt.configured, nil))
		})
	}
}

func TestPlan_MalformedGitmodulesKeepsRoot(t *testing.T) {
	workspace := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workspace, ".gitmodules"), []byte("[submodule \"broken\"\n\tpath = x\n"), 0o600))
	core, logs := observer.New(zapcore.WarnLevel)

	got := Plan(workspace, true, nil, zap.New(core))
	assert.Equal(t, []Repository{{Path: RootPath}}, got)
	assert.Equal(t, 1, logs.FilterMessageSnippet("unreadable .gitmodules").Len())

	got = Plan(workspace, false, []Repository{{Path: "svc"}}, zap.New(core))
	assert.Equal(t, []Repository{{Path: "svc"}}, got)
	assert.Equal(t, 1, logs.Len(), "configured repositories never read .gitmodules")
}
