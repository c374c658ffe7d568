package setup

import (
	"testing"
)

func TestRegistryHasClaude(t *testing.T) {
	env := GetAgentEnv("claude")
	if env == nil {
		t.Fatal("claude agent env should be registered")
	}
	if env.DisplayName() != "Claude Code" {
		t.Errorf("DisplayName() = %q, want %q", env.DisplayName(), "Claude Code")
	}
	if env.Profile() != "claude" {
		t.Errorf("Profile() = %q, want claude", env.Profile())
	}
}

func TestGetAgentEnvUnknown(t *testing.T) {
	if GetAgentEnv("nonexistent") != nil {
		t.Error("GetAgentEnv(\"nonexistent\") should return nil")
	}
}

func TestAllAgentEnvs(t *testing.T) {
	envs := AllAgentEnvs()
	if len(envs) < 2 {
		t.Fatalf("AllAgentEnvs() = %d envs, want at least 2", len(envs))
	}
	if envs[0].Name() != "claude" || envs[1].Name() != "cursor" {
		t.Errorf("order = %s, %s", envs[0].Name(), envs[1].Name())
	}
}

func TestStatusCommand(t *testing.T) {
	if got := StatusCommand("cursor"); got != "ambient status --profile cursor" {
		t.Errorf("StatusCommand() = %q", got)
	}
}

func TestAgentEnvLifecycle(t *testing.T) {
	for _, env := range AllAgentEnvs() {
		t.Run(env.Name(), func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Chdir(t.TempDir())

			if _, _, installed := env.Detect(); installed {
				t.Fatal("Detect() should be false before install")
			}

			path, err := env.Install(true)
			if err != nil {
				t.Fatalf("Install() error: %v", err)
			}
			detected, scope, installed := env.Detect()
			if !installed || scope != ScopeProject || detected != path {
				t.Errorf("Detect() = %q, %q, %v", detected, scope, installed)
			}

			_, _, globalInstalled, err := env.Check(false)
			if err != nil {
				t.Fatal(err)
			}
			if globalInstalled {
				t.Error("global scope should not be installed")
			}

			if err := env.Remove(true); err != nil {
				t.Fatalf("Remove() error: %v", err)
			}
			if _, _, installed := env.Detect(); installed {
				t.Error("Detect() should be false after remove")
			}
			if len(DetectedAgentEnvs()) != 0 {
				t.Error("no env should be detected after remove")
			}
		})
	}
}
