package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveBaseDir validates and normalizes the directory the input logs live under.
// If dir is empty, it returns the current working directory.
func ResolveBaseDir(dir string) (string, error) {
	if dir != "" {
		expandedPath, err := ExpandPath(dir)
		if err != nil {
			return "", fmt.Errorf("failed to expand base directory path '%s': %w", dir, err)
		}

		absPath, err := filepath.Abs(expandedPath)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path for base directory '%s': %w", expandedPath, err)
		}

		if info, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("base directory '%s' does not exist: %w", absPath, err)
		} else if !info.IsDir() {
			return "", fmt.Errorf("base directory '%s' is not a directory", absPath)
		}

		return absPath, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine working directory: %w", err)
	}
	return wd, nil
}

// EnsureDir creates dir and any missing parents
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory in file paths.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path, fmt.Errorf("failed to get user home directory: %w", err)
	}

	if path == "~" {
		return homeDir, nil
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:]), nil
	}

	return path, nil
}
