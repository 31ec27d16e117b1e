// Package platform resolves per-user directories for models, working files
// and the job registry.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDirFor maps an OS to the conventional application data
// directory. Parameters are explicit so tests can exercise every branch.
func DefaultDataDirFor(goos, homeDir, xdgDataHome string) (string, error) {
	if homeDir == "" {
		return "", errors.New("home directory is empty")
	}

	switch goos {
	case "linux":
		if xdgDataHome != "" {
			return filepath.Join(xdgDataHome, "batchscribe"), nil
		}
		return filepath.Join(homeDir, ".local", "share", "batchscribe"), nil
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "batchscribe"), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", goos)
	}
}

// ResolveDataDir returns the data directory for the current user.
func ResolveDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return DefaultDataDirFor(runtime.GOOS, homeDir, os.Getenv("XDG_DATA_HOME"))
}

// ResolveModelDir returns the model storage directory, honoring an explicit
// override.
func ResolveModelDir(override string) (string, error) {
	if override != "" {
		return filepath.Clean(override), nil
	}

	dataDir, err := ResolveDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "models"), nil
}
