package setup

// ClaudeEnv implements AgentEnv for Claude Code.
type ClaudeEnv struct{}

func init() {
	RegisterAgentEnv(&ClaudeEnv{})
}

// Name returns the CLI identifier.
func (c *ClaudeEnv) Name() string { return "claude" }

// DisplayName returns the human-readable name.
func (c *ClaudeEnv) DisplayName() string { return "Claude Code" }

// Profile returns the output profile the SessionStart hook uses.
func (c *ClaudeEnv) Profile() string { return "claude" }

// Detect checks whether the Claude Code hook is installed at either scope.
func (c *ClaudeEnv) Detect() (path, scope string, installed bool) {
	for _, project := range []bool{true, false} {
		settingsPath, s, err := ResolveClaudeSettingsPath(project)
		if err != nil {
			continue
		}
		if IsClaudeHookInstalled(settingsPath) {
			return settingsPath, s, true
		}
	}
	return "", "", false
}

// Install adds the ambient SessionStart hook to Claude Code settings.
func (c *ClaudeEnv) Install(project bool) (string, error) {
	settingsPath, _, err := ResolveClaudeSettingsPath(project)
	if err != nil {
		return "", err
	}
	if err := InstallClaudeHook(settingsPath); err != nil {
		return "", err
	}
	return settingsPath, nil
}

// Remove removes the ambient hook from Claude Code settings.
func (c *ClaudeEnv) Remove(project bool) error {
	settingsPath, _, err := ResolveClaudeSettingsPath(project)
	if err != nil {
		return err
	}
	return RemoveClaudeHook(settingsPath)
}

// Check returns installation status for a specific scope.
func (c *ClaudeEnv) Check(project bool) (path, scope string, installed bool, err error) {
	settingsPath, s, resolveErr := ResolveClaudeSettingsPath(project)
	if resolveErr != nil {
		return "", "", false, resolveErr
	}
	return settingsPath, s, IsClaudeHookInstalled(settingsPath), nil
}
