package repostatus

import (
	"path/filepath"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/gorewood/ambient/internal/git"
	"github.com/gorewood/ambient/internal/logging"
)

// RootPath is the display path of the workspace root repository.
const RootPath = "."

// Plan returns the repositories to inspect. Configured repositories win;
// without any, the submodules declared in the workspace .gitmodules are
// used. An unreadable .gitmodules is logged and contributes nothing. The
// workspace root is prepended when includeRoot is set and it is not already
// listed. Duplicate paths keep their first occurrence.
func Plan(workspace string, includeRoot bool, configured []Repository, log *zap.Logger) []Repository {
	repos := configured
	if len(repos) == 0 {
		modules, err := git.ReadModules(workspace)
		if err != nil {
			logging.OrNop(log).Warn("ignoring unreadable .gitmodules, no submodules listed", zap.Error(err))
		}
		repos = lo.Map(modules, func(sm git.Submodule, _ int) Repository {
			return Repository{Path: sm.Path}
		})
	}
	isRoot := func(r Repository) bool { return filepath.Clean(r.Path) == RootPath }
	if includeRoot && !lo.ContainsBy(repos, isRoot) {
		repos = append([]Repository{{Path: RootPath}}, repos...)
	}
	return lo.UniqBy(repos, func(r Repository) string {
		return filepath.Clean(r.Path)
	})
}
