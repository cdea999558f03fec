package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/spanish-trainer/internal/infra/postgres"
	"github.com/aliskhannn/spanish-trainer/internal/storage"
)

// KVRepository stores per-user key-value pairs in Postgres.
type KVRepository struct {
	db postgres.DBTX
}

// NewKVRepository creates a new KVRepository.
func NewKVRepository(db postgres.DBTX) *KVRepository {
	return &KVRepository{db: db}
}

// Get returns the value stored under key for the user.
func (r *KVRepository) Get(ctx context.Context, userID int64, key string) (string, error) {
	query := `
		SELECT value
		FROM user_kv
		WHERE user_id = $1 AND key = $2
	`

	var value string
	err := r.db.QueryRow(ctx, query, userID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get kv: %w", err)
	}

	return value, nil
}

// Set inserts or replaces the value stored under key for the user.
func (r *KVRepository) Set(ctx context.Context, userID int64, key, value string) error {
	query := `
		INSERT INTO user_kv (user_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.Exec(ctx, query, userID, key, value); err != nil {
		return fmt.Errorf("set kv: %w", err)
	}
	return nil
}

// Delete removes every value stored for the user.
func (r *KVRepository) Delete(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM user_kv WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("delete kv: %w", err)
	}
	return nil
}

// CloudSlot returns the user's view of the repository as a progress backend.
func (r *KVRepository) CloudSlot(userID int64) *CloudSlot {
	return &CloudSlot{repo: r, userID: userID}
}

// CloudSlot is a KVRepository bound to one user.
type CloudSlot struct {
	repo   *KVRepository
	userID int64
}

func (s *CloudSlot) Name() string {
	return "postgres"
}

func (s *CloudSlot) Get(ctx context.Context, key string) (string, error) {
	return s.repo.Get(ctx, s.userID, key)
}

func (s *CloudSlot) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, s.userID, key, value)
}
