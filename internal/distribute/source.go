package distribute

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// wholeFile keys the single entry of a file source.
const wholeFile = "."

type sourceFile struct {
	data []byte
	perm os.FileMode
}

// source is an artifact source with its expected copy content computed on
// first use.
type source struct {
	path   string
	info   os.FileInfo
	expect Expect
	files  map[string]sourceFile
	err    error
}

func (r *Resolver) openSource(art Artifact) *source {
	src := &source{path: filepath.Clean(art.Source)}
	info, err := r.fs.Stat(src.path)
	switch {
	case err == nil:
		src.info = info
		src.expect = Expect{NameOptional: art.Kind == KindCommand}
		if info.IsDir() {
			src.expect.Dir = filepath.Base(src.path)
		}
	case errors.Is(err, fs.ErrNotExist):
		src.err = fmt.Errorf("%w: %s", ErrSourceMissing, src.path)
	default:
		src.err = fmt.Errorf("reading source %s: %w", src.path, err)
	}
	return src
}

// loadSource opens the source and, when a copy target or the artifact kind
// needs it, validates its manifest.
func (r *Resolver) loadSource(art Artifact, needsManifest bool) (*source, error) {
	src := r.openSource(art)
	if src.err != nil {
		return nil, src.err
	}
	if needsManifest {
		if err := r.validateManifest(src); err != nil {
			return nil, err
		}
	}
	return src, nil
}

func (s *source) isDir() bool {
	return s.info != nil && s.info.IsDir()
}

func (s *source) manifestPath() string {
	if s.isDir() {
		return filepath.Join(s.path, ManifestName)
	}
	return s.path
}

func (r *Resolver) validateManifest(src *source) error {
	path := src.manifestPath()
	info, err := r.fs.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s not found", ErrInvalidManifest, filepath.Base(path))
	}
	if info.Size() > MaxManifestBytes {
		return fmt.Errorf("%w: %s is %d bytes (max %d)", ErrInvalidManifest, filepath.Base(path), info.Size(), MaxManifestBytes)
	}
	raw, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	m, err := ParseManifest(raw)
	if err != nil {
		return err
	}
	return m.Validate(src.expect)
}

// contents returns the files a transformed copy consists of, keyed by path
// relative to the target. A file source has the single key ".".
func (r *Resolver) contents(src *source) (map[string]sourceFile, error) {
	if src.files != nil || src.err != nil {
		return src.files, src.err
	}
	if src.info == nil {
		src.err = fmt.Errorf("%w: %s", ErrSourceMissing, src.path)
		return nil, src.err
	}

	files := make(map[string]sourceFile)
	if !src.isDir() {
		data, err := r.transformManifest(src.path, src.expect)
		if err != nil {
			src.err = err
			return nil, err
		}
		files[wholeFile] = sourceFile{data: data, perm: src.info.Mode().Perm()}
		src.files = files
		return files, nil
	}

	err := afero.Walk(r.fs, src.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src.path, path)
		if err != nil {
			return err
		}

		var data []byte
		if rel == ManifestName {
			data, err = r.transformManifest(path, src.expect)
		} else {
			data, err = afero.ReadFile(r.fs, path)
		}
		if err != nil {
			return err
		}
		files[rel] = sourceFile{data: data, perm: info.Mode().Perm()}
		return nil
	})
	if err != nil {
		src.err = fmt.Errorf("reading source %s: %w", src.path, err)
		return nil, src.err
	}
	src.files = files
	return files, nil
}

func (r *Resolver) transformManifest(path string, expect Expect) ([]byte, error) {
	raw, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := ParseManifest(raw)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(expect); err != nil {
		return nil, err
	}
	return m.Transformed(), nil
}
