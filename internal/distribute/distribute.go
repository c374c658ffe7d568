// Package distribute materializes source-of-truth artifacts at tool-specific
// target paths, either as symlinks or as transformed copies.
//
// Runs are idempotent: a target already in the desired state is left alone,
// and copies are rewritten only when their content differs. Every operation
// goes through an afero filesystem.
package distribute

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/gorewood/ambient/internal/logging"
)

// Sentinel errors matched with errors.Is.
var (
	ErrSourceMissing   = errors.New("source does not exist")
	ErrConflict        = errors.New("target is occupied by unmanaged content")
	ErrInvalidManifest = errors.New("invalid manifest")
	ErrUnknownMethod   = errors.New("unknown distribution method")
)

// Method is how an artifact reaches a target.
type Method string

// Distribution methods.
const (
	MethodLink Method = "link"
	MethodCopy Method = "copy"
)

// ParseMethod parses a configured method name.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "link", "symlink":
		return MethodLink, nil
	case "copy", "transform":
		return MethodCopy, nil
	default:
		return "", fmt.Errorf("%w %q (valid: link, copy)", ErrUnknownMethod, s)
	}
}

// Mode selects between checking and materializing.
type Mode int

// Run modes.
const (
	// Validate reports problems and planned actions without touching targets.
	Validate Mode = iota
	// Apply materializes every target of every valid artifact.
	Apply
)

func (m Mode) String() string {
	if m == Apply {
		return "apply"
	}
	return "validate"
}

// Kind is what an artifact holds. It decides how strictly the manifest is
// checked.
type Kind string

// Artifact kinds.
const (
	// KindListed is an artifact configured by hand. Its manifest is only
	// checked when a copy target needs it.
	KindListed Kind = ""
	// KindSkill is a skill directory holding SKILL.md.
	KindSkill Kind = "skill"
	// KindCommand is a single command file. Its name comes from the
	// directory holding it, so the manifest name is optional.
	KindCommand Kind = "command"
)

// Artifact is one source distributed to many targets.
type Artifact struct {
	Kind          Kind
	Source        string
	DefaultMethod Method
	Targets       []string
	Overrides     map[string]Method
}

// Target is a resolved destination.
type Target struct {
	Path   string `json:"path"`
	Method Method `json:"method"`
}

// Resolve returns each target with its effective method, plus override
// paths that match no target, sorted.
func (a Artifact) Resolve() ([]Target, []string) {
	overrides := make(map[string]Method, len(a.Overrides))
	for path, m := range a.Overrides {
		overrides[filepath.Clean(path)] = m
	}
	fallback := lo.Ternary(a.DefaultMethod != "", a.DefaultMethod, MethodLink)

	targets := make([]Target, 0, len(a.Targets))
	for _, path := range a.Targets {
		clean := filepath.Clean(path)
		m, ok := overrides[clean]
		if !ok {
			m = fallback
		}
		targets = append(targets, Target{Path: clean, Method: m})
	}

	paths := lo.Map(targets, func(t Target, _ int) string { return t.Path })
	orphans := lo.Filter(lo.Keys(overrides), func(p string, _ int) bool {
		return !slices.Contains(paths, p)
	})
	slices.Sort(orphans)
	return targets, orphans
}

// ActionKind describes what happened, or would happen, to a target.
type ActionKind string

// Action kinds.
const (
	ActionCreated   ActionKind = "created"
	ActionUpdated   ActionKind = "updated"
	ActionReplaced  ActionKind = "replaced"
	ActionUnchanged ActionKind = "unchanged"
	ActionRemoved   ActionKind = "removed"
	ActionKept      ActionKind = "kept"
	ActionAbsent    ActionKind = "absent"
	ActionFailed    ActionKind = "failed"
)

// Action is the outcome for one target.
type Action struct {
	Target string     `json:"target"`
	Method Method     `json:"method,omitempty"`
	Kind   ActionKind `json:"action"`
	Detail string     `json:"detail,omitempty"`
	Err    error      `json:"-"`
	Error  string     `json:"error,omitempty"`
}

// Result is the outcome for one artifact.
type Result struct {
	Source   string   `json:"source"`
	Actions  []Action `json:"actions"`
	Problems []string `json:"problems,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	// Err is the first validation error, if any.
	Err error `json:"-"`
}

// Valid reports whether the artifact passed validation.
func (r Result) Valid() bool {
	return len(r.Problems) == 0
}

// Report is the outcome of a run.
type Report struct {
	Mode      string   `json:"mode"`
	Artifacts []Result `json:"artifacts"`
}

// Invalid reports whether any artifact failed validation.
func (r Report) Invalid() bool {
	return lo.SomeBy(r.Artifacts, func(a Result) bool { return !a.Valid() })
}

// Failed reports whether any target action failed.
func (r Report) Failed() bool {
	return len(r.failures()) > 0
}

// Conflict reports whether any target failed because of unmanaged content.
func (r Report) Conflict() bool {
	return lo.SomeBy(r.failures(), func(a Action) bool { return errors.Is(a.Err, ErrConflict) })
}

// Warnings returns every warning across artifacts.
func (r Report) Warnings() []string {
	return lo.FlatMap(r.Artifacts, func(a Result, _ int) []string { return a.Warnings })
}

// Problems returns every validation problem, prefixed by its source.
func (r Report) Problems() []string {
	return lo.FlatMap(r.Artifacts, func(a Result, _ int) []string {
		return lo.Map(a.Problems, func(p string, _ int) string { return a.Source + ": " + p })
	})
}

func (r Report) failures() []Action {
	return lo.FlatMap(r.Artifacts, func(a Result, _ int) []Action {
		return lo.Filter(a.Actions, func(act Action, _ int) bool { return act.Kind == ActionFailed })
	})
}

// Resolver distributes artifacts over a filesystem.
type Resolver struct {
	fs  afero.Fs
	log *zap.Logger
}

// New returns a Resolver. A nil fs uses the OS filesystem.
func New(fs afero.Fs, log *zap.Logger) *Resolver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Resolver{fs: fs, log: logging.OrNop(log)}
}

// Run validates every artifact and, in Apply mode, materializes the targets
// of each valid one. Artifacts are independent: one failing does not stop
// the others.
func (r *Resolver) Run(ctx context.Context, artifacts []Artifact, mode Mode) Report {
	report := Report{Mode: mode.String(), Artifacts: make([]Result, 0, len(artifacts))}
	for _, art := range artifacts {
		if err := ctx.Err(); err != nil {
			report.Artifacts = append(report.Artifacts, Result{Source: art.Source, Problems: []string{err.Error()}, Err: err})
			continue
		}
		report.Artifacts = append(report.Artifacts, r.runArtifact(art, mode))
	}
	return report
}

func (r *Resolver) runArtifact(art Artifact, mode Mode) Result {
	res := Result{Source: art.Source}
	targets, orphans := art.Resolve()
	for _, path := range orphans {
		res.Warnings = append(res.Warnings, fmt.Sprintf("override for %s matches no target", path))
	}

	needsManifest := art.Kind != KindListed ||
		lo.SomeBy(targets, func(t Target) bool { return t.Method == MethodCopy })
	src, err := r.loadSource(art, needsManifest)
	if err != nil {
		res.Err = err
		res.Problems = append(res.Problems, problemsOf(err)...)
		return res
	}

	dry := mode != Apply
	for _, target := range targets {
		act := r.materialize(src, target, dry)
		if act.Err != nil {
			act.Kind = ActionFailed
			act.Error = act.Err.Error()
			r.log.Warn("distribution target failed",
				zap.String("source", art.Source), zap.String("target", target.Path), zap.Error(act.Err))
		}
		res.Actions = append(res.Actions, act)
	}
	return res
}

func (r *Resolver) materialize(src *source, target Target, dry bool) Action {
	act := Action{Target: target.Path, Method: target.Method}
	switch target.Method {
	case MethodLink:
		act.Kind, act.Err = r.link(src, target.Path, dry)
	case MethodCopy:
		act.Kind, act.Err = r.copy(src, target.Path, dry)
	default:
		act.Err = fmt.Errorf("%w %q", ErrUnknownMethod, target.Method)
	}
	return act
}

// problemsOf flattens a joined validation error into messages.
func problemsOf(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return lo.Map(joined.Unwrap(), func(e error, _ int) string { return e.Error() })
	}
	return []string{err.Error()}
}
