package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultStateDir is the subdirectory within the user's home directory.
const defaultStateDir = ".config/dynai"

const defaultStateFile = "state.db"

// ResolveStatePath returns the SQLite database path for configured. An empty
// value resolves to ~/.config/dynai/state.db, creating the directory. Any
// other value, ":memory:" included, is used as given.
func ResolveStatePath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	dir := filepath.Join(homeDir, defaultStateDir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create default state directory '%s': %w", dir, err)
	}
	return filepath.Join(dir, defaultStateFile), nil
}
