package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GosuCode/oklch-color-preview/internal/config"
	"github.com/GosuCode/oklch-color-preview/internal/errors"
)

// ValidateImportPath checks that path may be read by document_import:
//  1. no ".." components
//  2. the file exists and is a regular file, not a symlink
//  3. unless cfg.AllowUnsafePaths, it lives under the working directory or
//     one of cfg.AllowedPaths (compared after resolving symlinks)
//
// It returns the cleaned absolute path.
func ValidateImportPath(path string, cfg *config.Config) (string, error) {
	if path == "" {
		return "", errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	info, err := os.Lstat(absPath)
	if os.IsNotExist(err) {
		return "", errors.NewFileNotFound(path)
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", errors.NewInvalidRequest("path must not be a symlink")
	}
	if !info.Mode().IsRegular() {
		return "", errors.NewInvalidRequest("path must be a regular file")
	}

	if cfg != nil && cfg.AllowUnsafePaths {
		return absPath, nil
	}

	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("cannot resolve path: %v", err))
	}

	allowedDirs, err := getAllowedDirs(cfg)
	if err != nil {
		return "", err
	}
	if !isUnderAllowedDir(realPath, allowedDirs) {
		return "", errors.NewInvalidRequest(
			fmt.Sprintf("file must be inside an allowed directory; allowed: %v", allowedDirs))
	}

	return absPath, nil
}

// getAllowedDirs returns the working directory plus configured absolute
// allowed paths, with symlinks resolved where the directory exists.
func getAllowedDirs(cfg *config.Config) ([]string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to get working directory: %w", err))
	}
	dirs := []string{wd}

	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, filepath.Clean(p))
			}
		}
	}

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if resolved, err := filepath.EvalSymlinks(d); err == nil {
			d = resolved
		}
		result = append(result, d)
	}
	return result, nil
}

// isUnderAllowedDir reports whether path is inside one of dirs.
func isUnderAllowedDir(path string, dirs []string) bool {
	for _, dir := range dirs {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel) {
			return true
		}
	}
	return false
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// Also check forward slashes on all platforms (e.g., user input)
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
