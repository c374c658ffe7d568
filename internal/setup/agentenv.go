package setup

import (
	"slices"
	"strings"
)

// Scope names reported by AgentEnv implementations.
const (
	ScopeProject = "project"
	ScopeGlobal  = "global"
)

// AgentEnv describes an agent host that ambient can feed session context to.
type AgentEnv interface {
	// Name returns the short identifier used in CLI commands (e.g., "claude").
	Name() string

	// DisplayName returns the human-readable name (e.g., "Claude Code").
	DisplayName() string

	// Profile returns the output profile the installed hook renders with.
	Profile() string

	// Detect checks both scopes, project first.
	Detect() (path, scope string, installed bool)

	// Install registers the session-start hook at the given scope.
	Install(project bool) (path string, err error)

	// Remove unregisters the hook. Removing an absent hook is not an error.
	Remove(project bool) error

	// Check reports the settings path and install state for one scope.
	Check(project bool) (path, scope string, installed bool, err error)
}

var registry = map[string]AgentEnv{}

// RegisterAgentEnv registers an agent environment implementation.
func RegisterAgentEnv(env AgentEnv) {
	registry[env.Name()] = env
}

// GetAgentEnv returns a registered agent environment by name, or nil if not found.
func GetAgentEnv(name string) AgentEnv {
	return registry[name]
}

// AllAgentEnvs returns all registered agent environments in a stable order.
func AllAgentEnvs() []AgentEnv {
	order := []string{"claude", "cursor"}
	var result []AgentEnv
	for _, name := range order {
		if env, ok := registry[name]; ok {
			result = append(result, env)
		}
	}
	var rest []string
	for name := range registry {
		if !slices.Contains(order, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	for _, name := range rest {
		result = append(result, registry[name])
	}
	return result
}

// DetectedAgentEnvs returns agent environments that have ambient installed.
func DetectedAgentEnvs() []AgentEnv {
	var detected []AgentEnv
	for _, env := range AllAgentEnvs() {
		if _, _, installed := env.Detect(); installed {
			detected = append(detected, env)
		}
	}
	return detected
}

// StatusCommand is the hook command for a given output profile.
func StatusCommand(profile string) string {
	return "ambient status --profile " + profile
}

// isAmbientCommand matches hook commands written by any ambient version.
func isAmbientCommand(command string) bool {
	fields := strings.Fields(command)
	return len(fields) >= 2 && fields[0] == "ambient" && fields[1] == "status"
}
