package git

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	gitconfig "github.com/go-git/go-git/v5/config"
)

// Submodule is one entry of a .gitmodules file.
type Submodule struct {
	Name   string
	Path   string
	URL    string
	Branch string
}

// ReadModules parses <root>/.gitmodules. A missing file yields no
// submodules and no error.
func ReadModules(root string) ([]Submodule, error) {
	// #nosec G304 -- path is the workspace root joined with a fixed name
	data, err := os.ReadFile(filepath.Join(root, ".gitmodules"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading .gitmodules: %w", err)
	}
	return ParseModules(data)
}

// ParseModules parses .gitmodules content, ordered by path.
func ParseModules(data []byte) ([]Submodule, error) {
	modules := gitconfig.NewModules()
	if err := modules.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("parsing .gitmodules: %w", err)
	}

	result := make([]Submodule, 0, len(modules.Submodules))
	for _, sm := range modules.Submodules {
		if sm.Path == "" {
			continue
		}
		result = append(result, Submodule{
			Name:   sm.Name,
			Path:   filepath.Clean(sm.Path),
			URL:    sm.URL,
			Branch: sm.Branch,
		})
	}
	slices.SortFunc(result, func(a, b Submodule) int {
		return strings.Compare(a.Path, b.Path)
	})
	return result, nil
}

// BranchFor returns the declared branch for the submodule at path.
func BranchFor(modules []Submodule, path string) (string, bool) {
	clean := filepath.Clean(path)
	for _, sm := range modules {
		if sm.Path == clean && sm.Branch != "" && sm.Branch != "." {
			return sm.Branch, true
		}
	}
	return "", false
}
