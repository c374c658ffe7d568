package distribute

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"
)

// Remove deletes targets that this tool manages: symlinks to the source and
// copies identical to the transformed source. Anything else is kept and
// reported as a warning. The source itself is never touched.
func (r *Resolver) Remove(ctx context.Context, artifacts []Artifact) Report {
	report := Report{Mode: "remove", Artifacts: make([]Result, 0, len(artifacts))}
	for _, art := range artifacts {
		res := Result{Source: art.Source}
		src := r.openSource(art)
		targets, _ := art.Resolve()
		for _, target := range targets {
			if err := ctx.Err(); err != nil {
				res.Actions = append(res.Actions, Action{Target: target.Path, Kind: ActionFailed, Err: err, Error: err.Error()})
				continue
			}
			act := r.removeTarget(src, target)
			if act.Kind == ActionKept {
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s left in place: %s", target.Path, act.Detail))
			}
			if act.Err != nil {
				act.Kind = ActionFailed
				act.Error = act.Err.Error()
				r.log.Warn("removing distribution target failed", zap.String("target", target.Path), zap.Error(act.Err))
			}
			res.Actions = append(res.Actions, act)
		}
		report.Artifacts = append(report.Artifacts, res)
	}
	return report
}

func (r *Resolver) removeTarget(src *source, target Target) Action {
	act := Action{Target: target.Path, Method: target.Method}

	info, err := r.lstat(target.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		act.Kind = ActionAbsent
		return act
	case err != nil:
		act.Err = fmt.Errorf("inspecting %s: %w", target.Path, err)
		return act
	}

	switch {
	case isSymlink(info) && r.linksTo(target.Path, src.path):
		act.Err = r.fs.Remove(target.Path)
	case !isSymlink(info) && r.isManagedCopy(src, target.Path):
		act.Err = r.fs.RemoveAll(target.Path)
	case isSymlink(info):
		act.Kind = ActionKept
		act.Detail = "symlink points elsewhere"
		return act
	default:
		act.Kind = ActionKept
		act.Detail = "content differs from the source"
		return act
	}
	act.Kind = ActionRemoved
	return act
}
