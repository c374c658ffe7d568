// Package git answers repository questions by shelling out to git.
//
// Every query goes through a runner.Runner so tests can substitute canned
// results, and every query is bound to a directory rather than the process
// working directory, so one process can inspect many repositories:
//
//	repo := git.Open(path, runner.Exec{})
//	branch, detached, err := repo.CurrentBranch(ctx)
//	head, ok := repo.RemoteHead(ctx, "origin")
//
// # Submodules
//
// ReadModules parses a .gitmodules file with go-git's config package. The
// branch key of a submodule doubles as a declared default branch.
//
// # Error Handling
//
// Failures are returned as *output.ExitError with ExitSystemError, carrying
// git's stderr in the message.
package git
