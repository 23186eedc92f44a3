package media

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pders01/polarstock/internal/config"
	"github.com/pders01/polarstock/internal/validation"
)

// Launcher opens slot images in an external viewer.
type Launcher struct {
	viewer   string
	registry *ViewerRegistry
	urls     *validation.URLValidator
	paths    *validation.FilePathValidator
	start    func(*exec.Cmd) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	return newLauncher(cfg, exec.LookPath)
}

func newLauncher(cfg *config.Config, lookPath func(string) (string, error)) *Launcher {
	registry, err := NewViewerRegistry()
	if err != nil {
		// Continue with plain invocation if definitions can't be loaded
		registry = &ViewerRegistry{viewers: make(map[string]ViewerDefinition)}
	}

	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = cfg.Media.Darwin
	case "windows":
		candidates = cfg.Media.Windows
	default:
		candidates = cfg.Media.Linux
	}

	viewer := findCommand(lookPath, candidates...)
	if viewer == "" {
		viewer = cfg.Media.DefaultOpener
	}
	if viewer == "" {
		viewer = registry.DefaultOpener()
	}

	return &Launcher{
		viewer:   viewer,
		registry: registry,
		urls:     validation.NewURLValidator(),
		paths:    validation.NewFilePathValidator(),
		start:    startDetached,
	}
}

// Viewer returns the command images are opened with.
func (l *Launcher) Viewer() string {
	return l.viewer
}

// Open shows ref, a remote image URL or a local file such as an edited overlay.
func (l *Launcher) Open(ref string) error {
	target, err := l.resolve(ref)
	if err != nil {
		return err
	}

	cmd, err := l.registry.Command(l.viewer, target)
	if err != nil {
		cmd = exec.Command(l.viewer, target)
	}
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.viewer, err)
	}
	return nil
}

func (l *Launcher) resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("nothing to open")
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return l.urls.ValidateAndNormalize(ref)
	}
	return l.paths.ValidateFile(ref)
}

// startDetached starts GUI applications without waiting for them.
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func findCommand(lookPath func(string) (string, error), commands ...string) string {
	for _, cmd := range commands {
		if _, err := lookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
