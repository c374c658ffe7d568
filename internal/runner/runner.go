// Package runner executes subprocesses for ambient.
//
// A Runner never returns an error for a process that started and exited:
// the exit code, stdout and stderr are all reported in the Result, and
// callers decide what a non-zero exit means. Only a failure to start the
// process at all (binary missing, context already cancelled) is reported in
// Result.Err, with ExitCode set to -1.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process is
// killed. Grandchildren that inherited stdout would otherwise hold Run open.
const waitDelay = time.Second

// Result is the outcome of a subprocess run.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Err is set only when the process could not be run to completion.
	Err error
}

// OK reports whether the process exited zero.
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Output returns trimmed stdout.
func (r Result) Output() string {
	return strings.TrimSpace(r.Stdout)
}

// Combined returns stdout and stderr joined for diagnostics.
func (r Result) Combined() string {
	parts := make([]string, 0, 3)
	if out := strings.TrimSpace(r.Stdout); out != "" {
		parts = append(parts, out)
	}
	if errOut := strings.TrimSpace(r.Stderr); errOut != "" {
		parts = append(parts, errOut)
	}
	if r.Err != nil {
		parts = append(parts, r.Err.Error())
	}
	return strings.Join(parts, "\n")
}

// Runner runs a command in dir and captures its output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) Result
}

// Exec is the os/exec backed Runner.
type Exec struct {
	// Env, when non-nil, replaces the inherited environment.
	Env []string
}

// Run executes name with args in dir. When ctx ends, the process and
// everything it spawned are killed.
func (e Exec) Run(ctx context.Context, dir, name string, args ...string) Result {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if e.Env != nil {
		cmd.Env = e.Env
	}
	killGroupOnCancel(cmd)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		result.ExitCode = exitErr.ExitCode()
		return result
	}

	result.ExitCode = -1
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.Err = ctxErr
	} else {
		result.Err = err
	}
	return result
}

// Func adapts a function to the Runner interface.
type Func func(ctx context.Context, dir, name string, args ...string) Result

// Run calls f.
func (f Func) Run(ctx context.Context, dir, name string, args ...string) Result {
	return f(ctx, dir, name, args...)
}
