//go:build !unix

package runner

import "os/exec"

// killGroupOnCancel leaves the default behavior: only the direct child is
// killed. WaitDelay still bounds the wait for inherited pipes.
func killGroupOnCancel(*exec.Cmd) {}
