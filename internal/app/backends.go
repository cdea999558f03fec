package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/aliskhannn/spanish-trainer/internal/config"
	"github.com/aliskhannn/spanish-trainer/internal/service"
	"github.com/aliskhannn/spanish-trainer/internal/storage"
)

// CloudSlots returns the cloud backend of a user.
type CloudSlots func(userID int64) service.Backend

// LocalStorage is the device-local backend selected by storage.local_driver.
type LocalStorage struct {
	sqlite *storage.SQLiteStore
	files  *storage.FileStore
	memory *storage.MemoryStores
	logger *zap.Logger
}

// OpenLocalStorage opens the configured local backend. fsys is used by the
// file driver.
func OpenLocalStorage(cfg config.Storage, fsys afero.Fs, logger *zap.Logger) (*LocalStorage, error) {
	local := &LocalStorage{logger: logger}

	switch cfg.LocalDriver {
	case config.DriverSQLite:
		if err := fsys.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		s, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		local.sqlite = s
	case config.DriverFile:
		s, err := storage.NewFileStore(fsys, cfg.FileDir)
		if err != nil {
			return nil, err
		}
		local.files = s
	case config.DriverMemory:
		local.memory = storage.NewMemoryStores("memory")
	default:
		return nil, fmt.Errorf("unknown local driver %q", cfg.LocalDriver)
	}

	return local, nil
}

// UserStore returns the local backend of a user.
func (l *LocalStorage) UserStore(userID int64) service.Backend {
	switch {
	case l.sqlite != nil:
		return l.sqlite.UserSlot(userID)
	case l.files != nil:
		s, err := l.files.UserStore(userID)
		if err != nil {
			l.logger.Warn("local file store unavailable", zap.Int64("user_id", userID), zap.Error(err))
			return storage.NewUnavailableStore("file")
		}
		return s
	default:
		return l.memory.UserStore(userID)
	}
}

// Close releases the local backend.
func (l *LocalStorage) Close() error {
	if l.sqlite != nil {
		return l.sqlite.Close()
	}
	return nil
}

// Provider orders a user's backends: cloud first, then local.
// A nil cloud leaves the cloud slot unavailable.
func Provider(cloud CloudSlots, local *LocalStorage) service.BackendProvider {
	return func(userID int64) []service.Backend {
		var primary service.Backend = storage.NewUnavailableStore("postgres")
		if cloud != nil {
			primary = cloud(userID)
		}
		return []service.Backend{primary, local.UserStore(userID)}
	}
}
