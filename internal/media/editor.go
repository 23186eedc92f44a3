package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var ErrNoEditor = errors.New("no image editor configured")

// CommandEditor hands a slot image to an external program, which must write
// the transformed image to the output path it is given as last argument.
type CommandEditor struct {
	command []string
	outDir  string
	run     func(*exec.Cmd) error
}

// NewCommandEditor returns nil when command is empty.
func NewCommandEditor(command []string, outDir string) *CommandEditor {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil
	}
	if outDir == "" {
		outDir = os.TempDir()
	}
	return &CommandEditor{
		command: command,
		outDir:  outDir,
		run:     func(cmd *exec.Cmd) error { return cmd.Run() },
	}
}

// Edit runs the editor on ref and returns the path of the edited copy.
func (e *CommandEditor) Edit(ctx context.Context, ref string) (string, error) {
	if e == nil {
		return "", ErrNoEditor
	}
	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("nothing to edit")
	}
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating edit directory: %w", err)
	}

	out, err := os.CreateTemp(e.outDir, "polarstock-edit-*.jpg")
	if err != nil {
		return "", err
	}
	outPath := out.Name()
	_ = out.Close()

	args := append(append([]string{}, e.command[1:]...), ref, outPath)
	cmd := exec.CommandContext(ctx, e.command[0], args...)
	if err := e.run(cmd); err != nil {
		_ = os.Remove(outPath)
		return "", fmt.Errorf("editor %s failed: %w", filepath.Base(e.command[0]), err)
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(outPath)
		return "", fmt.Errorf("editor %s produced no image", filepath.Base(e.command[0]))
	}
	return outPath, nil
}
