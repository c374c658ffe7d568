package distribute

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

var errNoSymlinks = errors.New("filesystem does not support symlinks")

func (r *Resolver) lstat(path string) (os.FileInfo, error) {
	if l, ok := r.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return r.fs.Stat(path)
}

func isSymlink(info os.FileInfo) bool {
	return info.Mode()&os.ModeSymlink != 0
}

// linksTo reports whether target is a symlink resolving to source.
func (r *Resolver) linksTo(target, source string) bool {
	reader, ok := r.fs.(afero.LinkReader)
	if !ok {
		return false
	}
	dest, err := reader.ReadlinkIfPossible(target)
	if err != nil {
		return false
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(target), dest)
	}
	return filepath.Clean(dest) == filepath.Clean(source)
}

// linkValue is the symlink content for target: relative when possible.
func linkValue(source, target string) string {
	rel, err := filepath.Rel(filepath.Dir(target), source)
	if err != nil {
		return source
	}
	return rel
}

func (r *Resolver) symlink(source, target string) error {
	linker, ok := r.fs.(afero.Linker)
	if !ok {
		return errNoSymlinks
	}
	if err := r.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", target, err)
	}
	if err := linker.SymlinkIfPossible(linkValue(source, target), target); err != nil {
		return fmt.Errorf("linking %s: %w", target, err)
	}
	return nil
}

func (r *Resolver) link(src *source, target string, dry bool) (ActionKind, error) {
	if _, ok := r.fs.(afero.Linker); !ok {
		return ActionFailed, errNoSymlinks
	}

	info, err := r.lstat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if dry {
			return ActionCreated, nil
		}
		return ActionCreated, r.symlink(src.path, target)
	case err != nil:
		return ActionFailed, fmt.Errorf("inspecting %s: %w", target, err)
	}

	switch {
	case isSymlink(info):
		if r.linksTo(target, src.path) {
			return ActionUnchanged, nil
		}
	case info.IsDir():
		if !r.isManagedCopy(src, target) {
			return ActionFailed, fmt.Errorf("%w: directory %s differs from a copy of %s", ErrConflict, target, src.path)
		}
	}

	if dry {
		return ActionReplaced, nil
	}
	if err := r.fs.RemoveAll(target); err != nil {
		return ActionFailed, fmt.Errorf("removing %s: %w", target, err)
	}
	return ActionReplaced, r.symlink(src.path, target)
}

func (r *Resolver) copy(src *source, target string, dry bool) (ActionKind, error) {
	files, err := r.contents(src)
	if err != nil {
		return ActionFailed, err
	}

	existed, replaced := true, false
	info, err := r.lstat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		existed = false
	case err != nil:
		return ActionFailed, fmt.Errorf("inspecting %s: %w", target, err)
	case isSymlink(info):
		replaced = true
		if !dry {
			if err := r.fs.Remove(target); err != nil {
				return ActionFailed, fmt.Errorf("removing link %s: %w", target, err)
			}
		}
	case src.isDir() && !info.IsDir():
		return ActionFailed, fmt.Errorf("%w: %s is a file, expected a directory", ErrConflict, target)
	case !src.isDir() && info.IsDir():
		return ActionFailed, fmt.Errorf("%w: %s is a directory, expected a file", ErrConflict, target)
	}

	changed := false
	rels := lo.Keys(files)
	slices.Sort(rels)
	for _, rel := range rels {
		dest := target
		if rel != wholeFile {
			dest = filepath.Join(target, rel)
		}
		want := files[rel]
		if existed && !replaced && !r.differs(dest, want.data) {
			continue
		}
		changed = true
		if dry {
			continue
		}
		if err := r.writeAtomic(dest, want.data, want.perm); err != nil {
			return ActionFailed, err
		}
	}

	if src.isDir() && existed && !replaced {
		stale, err := r.staleFiles(target, files)
		if err != nil {
			return ActionFailed, err
		}
		if len(stale) > 0 {
			changed = true
			if !dry {
				if err := r.prune(target, stale); err != nil {
					return ActionFailed, err
				}
			}
		}
	}

	switch {
	case replaced:
		return ActionReplaced, nil
	case !existed:
		return ActionCreated, nil
	case changed:
		return ActionUpdated, nil
	default:
		return ActionUnchanged, nil
	}
}

// staleFiles lists entries under a copied directory that the source no
// longer has.
func (r *Resolver) staleFiles(target string, files map[string]sourceFile) ([]string, error) {
	var stale []string
	err := afero.Walk(r.fs, target, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(target, path)
		if err != nil {
			return err
		}
		if _, ok := files[rel]; !ok {
			stale = append(stale, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", target, err)
	}
	return stale, nil
}

// prune removes stale files, then any directory under target they leave
// empty.
func (r *Resolver) prune(target string, stale []string) error {
	dirs := make(map[string]struct{})
	for _, path := range stale {
		if err := r.fs.Remove(path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
		for dir := filepath.Dir(path); dir != target && strings.HasPrefix(dir, target); dir = filepath.Dir(dir) {
			dirs[dir] = struct{}{}
		}
	}
	// Deepest first, so parents are checked after their children.
	ordered := lo.Keys(dirs)
	slices.SortFunc(ordered, func(a, b string) int { return len(b) - len(a) })
	for _, dir := range ordered {
		if empty, err := afero.IsEmpty(r.fs, dir); err == nil && empty {
			if err := r.fs.Remove(dir); err != nil {
				return fmt.Errorf("removing %s: %w", dir, err)
			}
		}
	}
	return nil
}

func (r *Resolver) differs(path string, want []byte) bool {
	got, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return true
	}
	return !bytes.Equal(got, want)
}

// writeAtomic writes data to a temp file beside path and renames it over
// path.
func (r *Resolver) writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if perm == 0 {
		perm = 0o644
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := afero.WriteFile(r.fs, tmp, data, perm); err != nil {
		_ = r.fs.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := r.fs.Rename(tmp, path); err != nil {
		_ = r.fs.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// isManagedCopy reports whether target holds exactly the transformed copy of
// src and nothing else.
func (r *Resolver) isManagedCopy(src *source, target string) bool {
	files, err := r.contents(src)
	if err != nil {
		return false
	}

	info, err := r.lstat(target)
	if err != nil || isSymlink(info) {
		return false
	}
	if !info.IsDir() {
		want, ok := files[wholeFile]
		return ok && !r.differs(target, want.data)
	}
	if !src.isDir() {
		return false
	}

	seen := 0
	err = afero.Walk(r.fs, target, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(target, path)
		if err != nil {
			return err
		}
		want, ok := files[rel]
		if !ok || !info.Mode().IsRegular() || r.differs(path, want.data) {
			return errNotManaged
		}
		seen++
		return nil
	})
	return err == nil && seen == len(files)
}

var errNotManaged = errors.New("not a managed copy")
