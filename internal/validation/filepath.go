package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilePathValidator provides file path validation and sanitization for the
// database file and the export directory.
type FilePathValidator struct {
	// AllowHomeExpansion determines if tilde expansion is permitted
	AllowHomeExpansion bool
	// MaxPathLength is the maximum allowed path length
	MaxPathLength int
}

func NewFilePathValidator() *FilePathValidator {
	return &FilePathValidator{
		AllowHomeExpansion: true,
		MaxPathLength:      4096,
	}
}

// ValidateAndSanitize validates path and returns it cleaned and absolute.
func (v *FilePathValidator) ValidateAndSanitize(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}

	if strings.Contains(path, "\x00") {
		return "", fmt.Errorf("path contains null bytes")
	}
	for _, char := range path {
		if char < 32 && char != '\t' {
			return "", fmt.Errorf("path contains control characters")
		}
	}

	for _, component := range strings.Split(filepath.ToSlash(path), "/") {
		if component == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}

	if v.AllowHomeExpansion && strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	} else if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("tilde expansion not allowed or invalid tilde usage")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}

	return filepath.Clean(absPath), nil
}

// ValidateDirectory validates path as a directory, creating it when asked.
func (v *FilePathValidator) ValidateDirectory(path string, createIfNotExist bool) (string, error) {
	validPath, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(validPath)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", fmt.Errorf("path exists but is not a directory")
		}
	case os.IsNotExist(err) && createIfNotExist:
		if mkErr := os.MkdirAll(validPath, 0o755); mkErr != nil {
			return "", fmt.Errorf("cannot create directory: %w", mkErr)
		}
	case os.IsNotExist(err):
		return "", fmt.Errorf("directory does not exist: %s", validPath)
	default:
		return "", fmt.Errorf("cannot access directory: %w", err)
	}

	return validPath, nil
}

// ValidateFile validates path as a file whose parent directory exists or can be created.
func (v *FilePathValidator) ValidateFile(path string) (string, error) {
	validPath, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}

	if _, err := v.ValidateDirectory(filepath.Dir(validPath), true); err != nil {
		return "", fmt.Errorf("invalid parent directory: %w", err)
	}

	if info, err := os.Stat(validPath); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file")
	}

	return validPath, nil
}
