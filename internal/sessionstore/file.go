package sessionstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// File caches the CLI session as JSON in a file only the current user can read.
type File struct {
	path string
}

var _ services.CredentialCache = (*File)(nil)

// New returns a cache at path. An empty path means
// <user config dir>/homelift/hcp-admin-session.json.
func New(path string) (*File, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		path = filepath.Join(dir, "homelift", "hcp-admin-session.json")
	}
	return &File{path: path}, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Load() (services.Credentials, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return services.Credentials{}, false, nil
	}
	if err != nil {
		return services.Credentials{}, false, fmt.Errorf("read session: %w", err)
	}
	var creds services.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return services.Credentials{}, false, fmt.Errorf("decode session %s: %w", f.path, err)
	}
	if creds.IDToken == "" {
		return services.Credentials{}, false, nil
	}
	return creds, true, nil
}

// Save replaces the session file atomically.
func (f *File) Save(creds services.Credentials) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod session: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

func (f *File) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
