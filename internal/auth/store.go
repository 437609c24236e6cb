package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// tokenFileMode keeps the cached token readable by the owner only.
const tokenFileMode = 0600

// Store persists credentials to a single JSON file. The file is a
// cache: losing it only forces a fresh login.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads cached credentials. Returns ErrNoCachedToken when the
// file does not exist.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCachedToken
		}
		return nil, fmt.Errorf("read token cache: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse token cache: %w", err)
	}
	if creds.AccessToken == "" {
		return nil, ErrNoCachedToken
	}
	return &creds, nil
}

// Save writes credentials to disk with owner-only permissions.
func (s *Store) Save(creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, tokenFileMode); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}

// Clear removes the cached credentials. Missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token cache: %w", err)
	}
	return nil
}
