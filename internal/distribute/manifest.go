package distribute

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Manifest limits.
const (
	ManifestName         = "SKILL.md"
	MaxNameLength        = 64
	MaxDescriptionLen    = 1024
	MaxManifestBytes     = 512 * 1024
	frontMatterDelimiter = "---"
)

// namePattern is lowercase alphanumeric words joined by single hyphens.
var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Manifest is an artifact's front matter and body.
type Manifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Body is everything after the closing delimiter line, byte for byte.
	Body string `yaml:"-"`

	hasFrontMatter bool
}

// Expect narrows manifest validation to where the manifest lives.
type Expect struct {
	// Dir is the directory name the manifest name must equal. Empty skips
	// the check.
	Dir string
	// NameOptional accepts a manifest without a name. A name that is
	// present is still checked.
	NameOptional bool
}

// ParseManifest splits YAML front matter from the body.
func ParseManifest(raw []byte) (Manifest, error) {
	front, body, ok := splitFrontMatter(string(raw))
	m := Manifest{Body: body, hasFrontMatter: ok}
	if !ok {
		return m, nil
	}
	if err := yaml.Unmarshal([]byte(front), &m); err != nil {
		return m, fmt.Errorf("%w: front matter: %w", ErrInvalidManifest, err)
	}
	return m, nil
}

// Validate checks the fields a distributed artifact depends on.
func (m Manifest) Validate(expect Expect) error {
	var errs []error
	if !m.hasFrontMatter {
		errs = append(errs, fmt.Errorf("%w: missing front matter", ErrInvalidManifest))
	} else {
		errs = append(errs, m.checkName(expect))
		errs = append(errs, checkField("description", m.Description, MaxDescriptionLen))
	}
	if strings.TrimSpace(m.Body) == "" {
		errs = append(errs, fmt.Errorf("%w: body is empty", ErrInvalidManifest))
	}
	return errors.Join(errs...)
}

func (m Manifest) checkName(expect Expect) error {
	name := strings.TrimSpace(m.Name)
	if name == "" && expect.NameOptional {
		return nil
	}
	if err := checkField("name", name, MaxNameLength); err != nil {
		return err
	}
	var errs []error
	if !namePattern.MatchString(name) {
		errs = append(errs, fmt.Errorf("%w: name %q must be lowercase letters and digits joined by single hyphens", ErrInvalidManifest, name))
	}
	if expect.Dir != "" && name != expect.Dir {
		errs = append(errs, fmt.Errorf("%w: name %q must match directory %q", ErrInvalidManifest, name, expect.Dir))
	}
	return errors.Join(errs...)
}

// Transformed is the content written for a copy: the body alone, unchanged.
func (m Manifest) Transformed() []byte {
	return []byte(m.Body)
}

func checkField(field, value string, limit int) error {
	switch n := utf8.RuneCountInString(strings.TrimSpace(value)); {
	case n == 0:
		return fmt.Errorf("%w: %s is required", ErrInvalidManifest, field)
	case n > limit:
		return fmt.Errorf("%w: %s is %d characters (max %d)", ErrInvalidManifest, field, n, limit)
	default:
		return nil
	}
}

// splitFrontMatter separates a leading --- delimited block from the rest.
// The body starts right after the closing delimiter line.
func splitFrontMatter(raw string) (front, body string, ok bool) {
	raw = strings.TrimPrefix(raw, "\ufeff")
	first, rest, found := strings.Cut(raw, "\n")
	if !found || strings.TrimSpace(first) != frontMatterDelimiter {
		return "", raw, false
	}

	var lines []string
	for {
		line, next, more := strings.Cut(rest, "\n")
		if strings.TrimSpace(line) == frontMatterDelimiter {
			return strings.Join(lines, "\n"), next, true
		}
		if !more {
			return "", raw, false
		}
		lines = append(lines, line)
		rest = next
	}
}
