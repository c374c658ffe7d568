// Package repostatus derives point-in-time state for a set of git
// repositories: current branch, default branch, uncommitted changes and how
// far the checkout lags its default branch.
//
// Every query degrades to a documented fallback instead of failing, so a
// batch always completes. A path that is not a git work tree is the one case
// that drops a repository from the result.
package repostatus

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gorewood/ambient/internal/git"
	"github.com/gorewood/ambient/internal/logging"
	"github.com/gorewood/ambient/internal/runner"
)

// FallbackBranch is used when no other default branch source answers.
const FallbackBranch = "main"

// BranchSource names the waterfall step that produced a default branch.
type BranchSource string

// Default branch sources, in waterfall order.
const (
	SourceRemoteHead   BranchSource = "remote_head"
	SourceConfig       BranchSource = "config"
	SourceGitmodules   BranchSource = "gitmodules"
	SourceConventional BranchSource = "conventional"
	SourceFallback     BranchSource = "fallback"
)

// Status is the derived state of one repository.
type Status struct {
	Path                string       `json:"path"`
	CurrentBranch       string       `json:"current_branch"`
	DefaultBranch       string       `json:"default_branch"`
	DefaultBranchSource BranchSource `json:"default_branch_source"`
	UncommittedChanges  bool         `json:"uncommitted_changes"`
	// UncommittedUnknown is set when git status failed. UncommittedChanges
	// is then false and means nothing.
	UncommittedUnknown bool   `json:"uncommitted_unknown,omitempty"`
	CommitsBehind      Behind `json:"commits_behind"`
}

// Repository is one repository to inspect.
type Repository struct {
	// Path is relative to the workspace, or absolute.
	Path string
	// DefaultBranch overrides .gitmodules in the waterfall when set.
	DefaultBranch string
}

// Options configures an Aggregator.
type Options struct {
	Workspace      string
	Remote         string
	Fetch          bool
	NetworkTimeout time.Duration
	Concurrency    int
	Runner         runner.Runner
	Logger         *zap.Logger
}

// Aggregator inspects repositories.
type Aggregator struct {
	opts Options
	log  *zap.Logger
}

// New returns an Aggregator. Zero-valued options take defaults.
func New(opts Options) *Aggregator {
	if opts.Remote == "" {
		opts.Remote = "origin"
	}
	if opts.NetworkTimeout <= 0 {
		opts.NetworkTimeout = 5 * time.Second
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Runner == nil {
		opts.Runner = runner.Exec{}
	}
	return &Aggregator{opts: opts, log: logging.OrNop(opts.Logger)}
}

// Aggregate inspects repos concurrently and returns their statuses in input
// order, omitting repositories that could not be inspected.
func (a *Aggregator) Aggregate(ctx context.Context, repos []Repository) []Status {
	modules, err := git.ReadModules(a.opts.Workspace)
	if err != nil {
		a.log.Warn("ignoring unreadable .gitmodules", zap.Error(err))
	}

	slots := make([]*Status, len(repos))
	var g errgroup.Group
	g.SetLimit(a.opts.Concurrency)
	for i, repo := range repos {
		g.Go(func() error {
			if st, ok := a.Inspect(ctx, repo, modules); ok {
				slots[i] = &st
			}
			return nil
		})
	}
	_ = g.Wait()

	statuses := make([]Status, 0, len(repos))
	for _, st := range slots {
		if st != nil {
			statuses = append(statuses, *st)
		}
	}
	return statuses
}

// Inspect derives the status of one repository. It returns false when the
// path is not a git work tree.
func (a *Aggregator) Inspect(ctx context.Context, repo Repository, modules []git.Submodule) (Status, bool) {
	dir := a.dir(repo.Path)
	log := a.log.With(zap.String("repo", repo.Path))
	r := git.Open(dir, a.opts.Runner)

	if !r.IsWorkTree(ctx) {
		log.Warn("skipping path that is not a git work tree", zap.String("dir", dir))
		return Status{}, false
	}

	st := Status{Path: repo.Path}
	st.CurrentBranch = a.currentBranch(ctx, r, log)
	st.DefaultBranch, st.DefaultBranchSource = a.defaultBranch(ctx, r, repo, modules)
	if st.DefaultBranchSource == SourceFallback {
		log.Warn("default branch could not be determined, assuming "+FallbackBranch,
			zap.String("remote", a.opts.Remote))
	}

	dirty, err := r.HasUncommittedChanges(ctx)
	if err != nil {
		log.Warn("git status failed, uncommitted changes unknown", zap.Error(err))
		st.UncommittedUnknown = true
	} else {
		st.UncommittedChanges = dirty
	}

	st.CommitsBehind = a.commitsBehind(ctx, r, st.DefaultBranch, log)
	return st, true
}

func (a *Aggregator) currentBranch(ctx context.Context, r *git.Repo, log *zap.Logger) string {
	name, detached, err := r.CurrentBranch(ctx)
	switch {
	case err != nil:
		log.Warn("cannot resolve HEAD", zap.Error(err))
		return "unknown"
	case detached:
		return "detached @ " + name
	default:
		return name
	}
}

func (a *Aggregator) defaultBranch(ctx context.Context, r *git.Repo, repo Repository, modules []git.Submodule) (string, BranchSource) {
	remote := a.opts.Remote
	if branch, ok := r.RemoteHead(ctx, remote); ok {
		return branch, SourceRemoteHead
	}
	if repo.DefaultBranch != "" {
		return repo.DefaultBranch, SourceConfig
	}
	if branch, ok := git.BranchFor(modules, a.relative(repo.Path)); ok {
		return branch, SourceGitmodules
	}
	for _, candidate := range []string{"main", "master"} {
		if r.RefExists(ctx, "refs/remotes/"+remote+"/"+candidate) {
			return candidate, SourceConventional
		}
	}
	return FallbackBranch, SourceFallback
}

func (a *Aggregator) commitsBehind(ctx context.Context, r *git.Repo, branch string, log *zap.Logger) Behind {
	remote := a.opts.Remote
	if a.opts.Fetch {
		fetchCtx, cancel := context.WithTimeout(ctx, a.opts.NetworkTimeout)
		err := r.Fetch(fetchCtx, remote, branch)
		cancel()
		if err != nil {
			log.Warn("fetch failed, commits behind unknown",
				zap.String("remote", remote), zap.String("branch", branch), zap.Error(err))
			return Unknown
		}
	}

	upstream := "refs/remotes/" + remote + "/" + branch
	if !r.RefExists(ctx, upstream) {
		log.Debug("no tracking ref", zap.String("ref", upstream))
		return Unknown
	}
	n, err := r.CountBehind(ctx, upstream)
	if err != nil {
		log.Warn("counting commits behind failed", zap.Error(err))
		return Unknown
	}
	return Known(n)
}

func (a *Aggregator) dir(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(a.opts.Workspace, path)
}

func (a *Aggregator) relative(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	rel, err := filepath.Rel(a.opts.Workspace, path)
	if err != nil {
		return path
	}
	return rel
}
