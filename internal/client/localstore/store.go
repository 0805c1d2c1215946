// Package localstore is a durable persistence layer for single string
// values: one file per key, outside the vault database so values (notably
// the encryption key) can be read without opening the vault.
package localstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/otpvault/internal/common"
)

var keyRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Store keeps each value in its own 0600 file under dir.
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("empty localstore dir")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create localstore dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Open places the store in the per-user config directory.
func Open(appName string) (*Store, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return New(filepath.Join(cfgDir, appName))
}

func (s *Store) path(key string) (string, error) {
	if !keyRe.MatchString(key) {
		return "", fmt.Errorf("invalid localstore key: %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Get reads the value for key. Missing or empty files report
// common.ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", common.ErrNotFound
		}
		return "", err
	}
	v := strings.TrimRight(string(b), " \t\r\n")
	if v == "" {
		return "", common.ErrNotFound
	}
	return v, nil
}

// Set writes value for key with owner-only permissions.
func (s *Store) Set(key, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	return os.WriteFile(p, []byte(value), 0o600)
}

// Delete removes the value for key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Has reports whether a non-empty value exists for key.
func (s *Store) Has(key string) bool {
	_, err := s.Get(key)
	return err == nil
}
