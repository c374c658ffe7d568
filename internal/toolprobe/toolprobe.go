// Package toolprobe reports which registered command-line tools are
// installed on the host.
package toolprobe

import (
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/gorewood/ambient/internal/logging"
)

// ErrMissingCommand is returned by Validate for an entry without a command.
var ErrMissingCommand = errors.New("tool has no command")

// Entry describes a tool that may be installed.
type Entry struct {
	Command      string
	DisplayName  string
	Description  string
	WhenToUse    string
	Instructions string
}

// Registry maps tool ids to entries.
type Registry map[string]Entry

// Availability is the probe result for one tool.
type Availability struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	Description  string `json:"description,omitempty"`
	WhenToUse    string `json:"when_to_use,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Available    bool   `json:"available"`
	CommandName  string `json:"command"`
	ResolvedPath string `json:"path,omitempty"`
}

// LookPathFunc resolves a command name to an executable path.
type LookPathFunc func(file string) (string, error)

// Prober checks registry entries against the host.
type Prober struct {
	// LookPath defaults to exec.LookPath.
	LookPath LookPathFunc
	// ShowUnavailable includes tools that were not found, with their
	// instructions cleared.
	ShowUnavailable bool
	Logger          *zap.Logger
}

// Validate rejects entries that cannot be probed.
func (r Registry) Validate() error {
	var errs []error
	for _, id := range r.IDs() {
		if strings.TrimSpace(r[id].Command) == "" {
			errs = append(errs, fmt.Errorf("%s: %w", id, ErrMissingCommand))
		}
	}
	return errors.Join(errs...)
}

// IDs returns the registry ids in sorted order.
func (r Registry) IDs() []string {
	ids := lo.Keys(r)
	slices.Sort(ids)
	return ids
}

// Probe checks every registry entry in id order. A tool that is not found is
// never an error.
func (p Prober) Probe(registry Registry) []Availability {
	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	log := logging.OrNop(p.Logger)

	results := make([]Availability, 0, len(registry))
	for _, id := range registry.IDs() {
		entry := registry[id]
		av := Availability{
			ID:           id,
			DisplayName:  lo.Ternary(entry.DisplayName != "", entry.DisplayName, id),
			Description:  entry.Description,
			WhenToUse:    entry.WhenToUse,
			Instructions: entry.Instructions,
			CommandName:  entry.Command,
		}
		path, err := lookPath(entry.Command)
		if err == nil {
			av.Available = true
			av.ResolvedPath = path
		} else {
			log.Debug("tool not found", zap.String("tool", id), zap.String("command", entry.Command))
		}

		switch {
		case av.Available:
			results = append(results, av)
		case p.ShowUnavailable:
			av.Instructions = ""
			results = append(results, av)
		}
	}
	return results
}
