package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// FileStore keeps one file per key under a directory.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(fsys afero.Fs, dir string) (*FileStore, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{fs: fsys, dir: dir}, nil
}

// Name returns the store name used in logs and metrics.
func (s *FileStore) Name() string {
	return "file"
}

// Get reads the value stored under key.
func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return string(data), nil
}

// Set writes value under key. The file is replaced atomically.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	target := s.path(key)
	tmp := target + ".tmp"

	if err := afero.WriteFile(s.fs, tmp, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// UserStore returns a FileStore for a single user, kept in its own subdirectory.
func (s *FileStore) UserStore(userID int64) (*FileStore, error) {
	return NewFileStore(s.fs, filepath.Join(s.dir, strconv.FormatInt(userID, 10)))
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, fileName(key)+".json")
}

// fileName maps a storage key to a safe file name.
func fileName(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}
