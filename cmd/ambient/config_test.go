package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig_JSON(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, ".ambient.yaml")
	writeTestFile(t, configPath, `profile: claude
repositories:
  - lib
  - path: services/api
    default_branch: develop
tools:
  jq:
    command: jq
collections:
  - kind: skills
    root: skills
    targets: [.claude/skills]
`)

	stdout, _, err := runAmbient(t, "config", "--config", configPath, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var result configResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if result.Profile != "claude" || result.Workspace != dir {
		t.Errorf("result = %+v", result)
	}
	if len(result.Repositories) != 2 || result.Repositories[1].DefaultBranch != "develop" {
		t.Errorf("repositories = %+v", result.Repositories)
	}
	if len(result.Tools) != 1 || result.Tools["jq"].Command != "jq" {
		t.Errorf("tools = %+v", result.Tools)
	}
	if result.IncludeRoot {
		t.Error("include_root should default to false")
	}
	if len(result.Collections) != 1 || result.Collections[0].Root != filepath.Join(dir, "skills") {
		t.Errorf("collections = %+v", result.Collections)
	}
	if result.Entrypoint != filepath.Join(dir, ".ambient", "session-context") {
		t.Errorf("entrypoint = %q", result.Entrypoint)
	}
}

func TestConfig_Human(t *testing.T) {
	isolateConfig(t)
	configPath := filepath.Join(t.TempDir(), ".ambient.yaml")
	writeTestFile(t, configPath, "remote: upstream\n")

	stdout, _, err := runAmbient(t, "config", "--config", configPath, "--color", "never")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"upstream", "Include root"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "Tools") {
		t.Errorf("no tools are configured, so no tools section:\n%s", stdout)
	}
}
