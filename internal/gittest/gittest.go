// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// RequireGit skips the test when git is not installed.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// Git runs a git command in dir and fails the test on error.
// Returns trimmed stdout.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.CommandContext(context.Background(), "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test User",
		"GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=Test User",
		"GIT_COMMITTER_EMAIL=test@test.com",
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_TERMINAL_PROMPT=0",
	)
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		t.Fatalf("git %v failed: %v\n%s", args, err, stderr)
	}
	return strings.TrimSpace(string(out))
}

// Init creates a repository with one commit on branch, returning its path.
func Init(t *testing.T, branch string) string {
	t.Helper()
	RequireGit(t)
	dir := t.TempDir()
	Git(t, dir, "init", "--quiet", "--initial-branch="+branch)
	Commit(t, dir, "README.md", "# test\n", "Initial commit")
	return dir
}

// InitBare creates a bare repository whose HEAD points at branch.
func InitBare(t *testing.T, branch string) string {
	t.Helper()
	RequireGit(t)
	dir := filepath.Join(t.TempDir(), "remote.git")
	Git(t, filepath.Dir(dir), "init", "--quiet", "--bare", "--initial-branch="+branch, dir)
	return dir
}

// Clone clones src into a fresh temp dir and returns the clone's path.
func Clone(t *testing.T, src string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "clone")
	Git(t, filepath.Dir(dir), "clone", "--quiet", src, dir)
	return dir
}

// Commit writes content to name and commits it.
func Commit(t *testing.T, dir, name, content, message string) {
	t.Helper()
	WriteFile(t, filepath.Join(dir, name), content)
	Git(t, dir, "add", name)
	Git(t, dir, "commit", "--quiet", "-m", message)
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WithRemote creates a bare remote on branch seeded from a working repo and
// returns (remote, clone). The clone has origin/HEAD set.
func WithRemote(t *testing.T, branch string) (remote, clone string) {
	t.Helper()
	seed := Init(t, branch)
	remote = InitBare(t, branch)
	Git(t, seed, "remote", "add", "origin", remote)
	Git(t, seed, "push", "--quiet", "origin", branch)
	clone = Clone(t, remote)
	return remote, clone
}
