package distribute

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// CommandFileName is the member file of a command collection.
const CommandFileName = "command.md"

// ErrUnknownKind is returned for a collection kind other than skills or
// commands.
var ErrUnknownKind = errors.New("unknown collection kind")

// ParseKind parses a configured collection kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skill", "skills":
		return KindSkill, nil
	case "command", "commands":
		return KindCommand, nil
	default:
		return "", fmt.Errorf("%w %q (valid: skills, commands)", ErrUnknownKind, s)
	}
}

// Collection is a directory of artifacts found by layout. Skills live at
// <root>/<name>/SKILL.md and land at <target>/<name>. Commands live at
// <root>/<name>/command.md and land at <target>/<name>.md.
type Collection struct {
	Kind          Kind
	Root          string
	DefaultMethod Method
	// Targets are directories that receive every member.
	Targets []string
	// Overrides are keyed by target directory.
	Overrides map[string]Method
}

func (c Collection) memberFile() (string, error) {
	switch c.Kind {
	case KindSkill:
		return ManifestName, nil
	case KindCommand:
		return CommandFileName, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownKind, c.Kind)
	}
}

// placement is where a member named name lands inside dir.
func (c Collection) placement(dir, name string) string {
	if c.Kind == KindCommand {
		return filepath.Join(dir, name+".md")
	}
	return filepath.Join(dir, name)
}

// Discover returns one artifact per member of the collection, sorted by
// name. Hidden directories and directories without the member file are
// skipped. A missing root has no members.
func (r *Resolver) Discover(c Collection) ([]Artifact, error) {
	file, err := c.memberFile()
	if err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(r.fs, c.Root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading collection %s: %w", c.Root, err)
	}

	var artifacts []Artifact
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		dir := filepath.Join(c.Root, name)
		if ok, _ := afero.Exists(r.fs, filepath.Join(dir, file)); !ok {
			continue
		}
		artifacts = append(artifacts, c.member(name, dir, file))
	}
	slices.SortFunc(artifacts, func(a, b Artifact) int { return strings.Compare(a.Source, b.Source) })
	r.log.Debug("discovered collection", zap.String("root", c.Root), zap.String("kind", string(c.Kind)), zap.Int("members", len(artifacts)))
	return artifacts, nil
}

func (c Collection) member(name, dir, file string) Artifact {
	art := Artifact{
		Kind:          c.Kind,
		Source:        dir,
		DefaultMethod: c.DefaultMethod,
		Targets:       make([]string, 0, len(c.Targets)),
	}
	if c.Kind == KindCommand {
		art.Source = filepath.Join(dir, file)
	}
	for _, target := range c.Targets {
		art.Targets = append(art.Targets, c.placement(target, name))
	}
	if len(c.Overrides) > 0 {
		art.Overrides = make(map[string]Method, len(c.Overrides))
		for target, m := range c.Overrides {
			art.Overrides[c.placement(target, name)] = m
		}
	}
	return art
}
