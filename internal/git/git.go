package git

import (
	"context"
	"strconv"
	"strings"

	"github.com/gorewood/ambient/internal/output"
	"github.com/gorewood/ambient/internal/runner"
)

// Repo is a git working tree at Dir.
type Repo struct {
	Dir    string
	runner runner.Runner
}

// Open returns a Repo rooted at dir. A nil runner uses runner.Exec.
func Open(dir string, r runner.Runner) *Repo {
	if r == nil {
		r = runner.Exec{}
	}
	return &Repo{Dir: dir, runner: r}
}

// Run executes a git command in the repository and returns trimmed stdout.
func (r *Repo) Run(ctx context.Context, args ...string) (string, error) {
	res := r.runner.Run(ctx, r.Dir, "git", args...)
	if res.Err != nil {
		return "", output.NewSystemErrorWithCause("git command failed: "+res.Err.Error(), res.Err)
	}
	if res.ExitCode != 0 {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = "exit status " + strconv.Itoa(res.ExitCode)
		}
		return "", output.NewSystemError("git command failed: " + msg)
	}
	return res.Output(), nil
}

// IsWorkTree reports whether Dir is inside a git working tree.
func (r *Repo) IsWorkTree(ctx context.Context) bool {
	out, err := r.Run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// CurrentBranch returns the checked-out branch name. When HEAD is detached
// it returns the short commit hash and detached=true.
func (r *Repo) CurrentBranch(ctx context.Context) (name string, detached bool, err error) {
	if branch, symErr := r.Run(ctx, "symbolic-ref", "--quiet", "--short", "HEAD"); symErr == nil && branch != "" {
		return branch, false, nil
	}
	sha, err := r.Run(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", false, output.NewSystemErrorWithCause("failed to resolve HEAD", err)
	}
	return sha, true, nil
}

// RemoteHead resolves refs/remotes/<remote>/HEAD to a branch name.
// Returns false when the symbolic ref is not set locally.
func (r *Repo) RemoteHead(ctx context.Context, remote string) (string, bool) {
	ref, err := r.Run(ctx, "symbolic-ref", "--quiet", "--short", "refs/remotes/"+remote+"/HEAD")
	if err != nil || ref == "" {
		return "", false
	}
	branch := strings.TrimPrefix(ref, remote+"/")
	if branch == "" || branch == ref {
		return "", false
	}
	return branch, true
}

// RefExists reports whether ref resolves to a commit.
func (r *Repo) RefExists(ctx context.Context, ref string) bool {
	_, err := r.Run(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	return err == nil
}

// HasUncommittedChanges reports staged, unstaged or untracked changes.
func (r *Repo) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := r.Run(ctx, "status", "--porcelain", "--untracked-files=normal")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// Fetch updates the remote-tracking ref for branch.
func (r *Repo) Fetch(ctx context.Context, remote, branch string) error {
	_, err := r.Run(ctx, "fetch", "--quiet", "--no-tags", remote, branch)
	return err
}

// CountBehind returns the number of commits reachable from upstream but not
// from HEAD.
func (r *Repo) CountBehind(ctx context.Context, upstream string) (int, error) {
	out, err := r.Run(ctx, "rev-list", "--count", "HEAD.."+upstream)
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(out)
	if convErr != nil {
		return 0, output.NewSystemErrorWithCause("unexpected rev-list output: "+out, convErr)
	}
	return n, nil
}
