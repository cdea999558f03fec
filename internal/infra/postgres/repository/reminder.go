package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
	"github.com/aliskhannn/spanish-trainer/internal/infra/postgres"
)

// ReminderRepository tracks streak reminder sends.
type ReminderRepository struct {
	db postgres.DBTX
}

// NewRemindersRepository creates a new ReminderRepository with the provided database pool.
func NewRemindersRepository(db postgres.DBTX) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// ListCandidates returns up to limit active users with a cloud progress
// record and an id above afterID, ordered by id. Paging by id stays correct
// while earlier pages deactivate users.
// Filtering by streak state happens in the caller, which understands the record format.
func (r *ReminderRepository) ListCandidates(
	ctx context.Context,
	progressKey string,
	afterID int64,
	limit int,
) ([]*entities.StreakCandidate, error) {
	query := `
		SELECT u.id, u.chat_id, kv.value, sr.last_sent_day
		FROM users u
		JOIN user_kv kv ON kv.user_id = u.id AND kv.key = $1
		LEFT JOIN streak_reminders sr ON sr.user_id = u.id
		WHERE u.is_active = TRUE AND u.id > $2
		ORDER BY u.id
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, progressKey, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("query reminder candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*entities.StreakCandidate
	for rows.Next() {
		var (
			c        entities.StreakCandidate
			lastSent pgtype.Date
		)
		if err := rows.Scan(&c.UserID, &c.ChatID, &c.Progress, &lastSent); err != nil {
			return nil, fmt.Errorf("scan reminder candidate: %w", err)
		}
		if lastSent.Valid {
			c.LastSentDay = lastSent.Time.Format(entities.DayLayout)
		}
		candidates = append(candidates, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminder candidates: %w", err)
	}

	return candidates, nil
}

// MarkSent records that the user was reminded on day (YYYY-MM-DD).
func (r *ReminderRepository) MarkSent(ctx context.Context, userID int64, day string) error {
	query := `
		INSERT INTO streak_reminders (user_id, last_sent_day, updated_at)
		VALUES ($1, $2::date, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			last_sent_day = EXCLUDED.last_sent_day,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.Exec(ctx, query, userID, day); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
