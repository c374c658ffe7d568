// Package output renders command results for humans and agents.
//
// Two audiences read ambient's output. Agents consume stdout (formatted
// context, JSON reports) and operators read stderr (warnings, errors). The
// Printer keeps the two apart: Warn and Error go to the error writer in human
// mode, while JSON mode keeps everything on stdout as structured objects.
//
//	printer := output.NewPrinter(cmd.OutOrStdout(), jsonMode, output.IsTTY(cmd.OutOrStdout())).
//		WithStderr(cmd.ErrOrStderr())
//	printer.Section("Repositories")
//	printer.KeyValue("api", "main")
//
// # Exit Codes
//
//	output.ExitSuccess     // 0
//	output.ExitUserError   // 1: bad flags, invalid config, validation failures
//	output.ExitSystemError // 2: git or filesystem failures
//	output.ExitConflict    // 3: a distribution target is occupied by unmanaged content
package output
