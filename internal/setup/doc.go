// Package setup installs ambient into agent hosts so that a fresh session
// starts with workspace context.
//
// Each host is an AgentEnv. The Claude Code env registers a SessionStart
// hook in .claude/settings.json; the Cursor env registers a sessionStart
// hook in .cursor/hooks.json. Both run `ambient status` with the host's
// output profile. Installation merges into existing settings and leaves
// unrelated keys and hooks untouched:
//
//	path, scope, err := setup.ResolveClaudeSettingsPath(false)
//	installed := setup.IsClaudeHookInstalled(path)
//	err = setup.InstallClaudeHook(path)
//	err = setup.RemoveClaudeHook(path)
package setup
