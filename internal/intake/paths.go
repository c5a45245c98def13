package intake

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines file operations to the configured intake
// directory. The directory may not exist yet at construction time;
// checks are skipped until it does.
type PathValidator struct {
	intakeDir string
}

// NewPathValidator creates a path validator rooted at the intake
// directory
func NewPathValidator(intakeDir string) (*PathValidator, error) {
	if intakeDir == "" {
		return nil, fmt.Errorf("intake directory cannot be empty")
	}
	return &PathValidator{intakeDir: intakeDir}, nil
}

// IntakeDirectory returns the configured intake directory
func (v *PathValidator) IntakeDirectory() string {
	return v.intakeDir
}

// ValidatePath checks that a path stays within the intake directory
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	// An intake directory that does not exist yet cannot be escaped.
	if _, err := os.Stat(v.intakeDir); os.IsNotExist(err) {
		return nil
	}

	within, err := v.isWithinIntakeDir(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return fmt.Errorf("path is outside the intake directory: %s", path)
	}
	return nil
}

// isWithinIntakeDir resolves both the candidate path and the intake
// directory, symlinks included, and prefix-checks the results
func (v *PathValidator) isWithinIntakeDir(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(v.intakeDir)
	if err != nil {
		return false, fmt.Errorf("failed to resolve intake directory: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(absDir)

	// Resolve symlinks where the targets exist; a path that does not
	// exist yet is judged by its lexical form.
	realPath := cleanPath
	if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
		realPath = resolved
	}
	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	contains := func(dir, p string) bool {
		if p == dir {
			return true
		}
		if !strings.HasSuffix(dir, string(filepath.Separator)) {
			dir += string(filepath.Separator)
		}
		return strings.HasPrefix(p, dir)
	}

	// Both the lexical and the resolved form must land inside the
	// directory, so a symlink cannot smuggle a path out.
	pathOk := contains(cleanDir, cleanPath) || contains(realDir, cleanPath)
	realOk := contains(cleanDir, realPath) || contains(realDir, realPath)
	return pathOk && realOk, nil
}

// NormalizePath resolves a possibly-relative path against the intake
// directory and validates the result
func (v *PathValidator) NormalizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	// Strip null bytes before any filesystem call sees the path.
	path = strings.ReplaceAll(path, "\x00", "")

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.intakeDir, path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := v.ValidatePath(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

// ValidateDirectory checks that a directory is within the intake
// directory and, when it exists, actually is a directory
func (v *PathValidator) ValidateDirectory(dirPath string) error {
	if err := v.ValidatePath(dirPath); err != nil {
		return err
	}

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Not created yet, which is fine.
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return nil
}
