package media

import (
	_ "embed"
	"fmt"
	"os/exec"
	"runtime"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed viewers.toml
var viewersTOML []byte

// ViewerDefinition describes how an image viewer is invoked.
type ViewerDefinition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	// Command overrides the executable when the viewer name is a shell builtin.
	Command string   `toml:"command,omitempty"`
	Args    []string `toml:"args,omitempty"`
}

type viewersFile struct {
	Platforms map[string]string           `toml:"platforms"`
	Viewers   map[string]ViewerDefinition `toml:"viewers"`
}

// ViewerRegistry holds the known viewer definitions.
type ViewerRegistry struct {
	viewers   map[string]ViewerDefinition
	platforms map[string]string
}

// NewViewerRegistry loads the embedded definitions.
func NewViewerRegistry() (*ViewerRegistry, error) {
	var f viewersFile
	if err := toml.Unmarshal(viewersTOML, &f); err != nil {
		return nil, fmt.Errorf("parsing viewers.toml: %w", err)
	}
	if f.Viewers == nil {
		f.Viewers = make(map[string]ViewerDefinition)
	}
	return &ViewerRegistry{viewers: f.Viewers, platforms: f.Platforms}, nil
}

// DefaultOpener returns the platform's generic opener.
func (r *ViewerRegistry) DefaultOpener() string {
	if opener, ok := r.platforms[runtime.GOOS]; ok {
		return opener
	}
	if opener, ok := r.platforms["fallback"]; ok {
		return opener
	}
	return "open"
}

// Command builds the command that shows target in the named viewer.
func (r *ViewerRegistry) Command(viewer, target string) (*exec.Cmd, error) {
	def, ok := r.viewers[viewer]
	if !ok {
		return exec.Command(viewer, target), nil
	}
	if len(def.Platforms) > 0 && !slices.Contains(def.Platforms, runtime.GOOS) {
		return nil, fmt.Errorf("%s not supported on %s", viewer, runtime.GOOS)
	}

	name := viewer
	if def.Command != "" {
		name = def.Command
	}
	args := append(slices.Clone(def.Args), target)
	return exec.Command(name, args...), nil
}
