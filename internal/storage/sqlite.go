package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a local key-value store partitioned by scope.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// SQLite doesn't support multiple writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (scope, key)
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

// Slot returns a store view limited to scope.
func (s *SQLiteStore) Slot(scope string) *SQLiteSlot {
	return &SQLiteSlot{db: s.db, scope: scope}
}

// UserSlot returns the slot holding a Telegram user's local copy.
func (s *SQLiteStore) UserSlot(userID int64) *SQLiteSlot {
	return s.Slot("user:" + strconv.FormatInt(userID, 10))
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SQLiteSlot is the part of a SQLiteStore that belongs to one scope.
type SQLiteSlot struct {
	db    *sqlx.DB
	scope string
}

// Name returns the store name used in logs and metrics.
func (s *SQLiteSlot) Name() string {
	return "sqlite"
}

// Get returns the value stored under key in this scope.
func (s *SQLiteSlot) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv WHERE scope = ? AND key = ?`, s.scope, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key in this scope.
func (s *SQLiteSlot) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv (scope, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (scope, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, s.scope, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
