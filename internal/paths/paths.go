// Package paths resolves devplanet's on-disk locations.
// All state lives under a single home directory (~/.devplanet by default).
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the devplanet home directory when set.
const HomeEnv = "DEVPLANET_HOME"

// Home returns the devplanet home directory.
// Respects DEVPLANET_HOME, otherwise ~/.devplanet.
func Home() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(home, ".devplanet"), nil
}

// EnsureHome creates the devplanet home directory if it doesn't exist
// and returns its path.
func EnsureHome() (string, error) {
	dir, err := Home()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create devplanet home: %w", err)
	}
	return dir, nil
}

// ConfigPath returns the path to the client config file.
func ConfigPath() (string, error) {
	dir, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// TokenCachePath returns the path of the cached auth token.
// The file is a cache of in-memory auth state, never the source of truth.
func TokenCachePath() (string, error) {
	dir, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token.json"), nil
}

// HistoryDBPath returns the path of the local session history database.
func HistoryDBPath() (string, error) {
	dir, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// LogPath returns the path of the client log file.
func LogPath() (string, error) {
	dir, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "devplanet.log"), nil
}
