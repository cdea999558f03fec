package service

import (
	"context"
	"time"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
)

// Backend is a key-value store that holds serialized progress.
// Get returns storage.ErrNotFound when nothing is stored under key and
// storage.ErrUnavailable when the store cannot be used in this runtime.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// BackendProvider returns a user's backends in priority order.
type BackendProvider func(userID int64) []Backend

// Clock returns the current time.
type Clock func() time.Time

// Metrics receives ledger activity.
type Metrics interface {
	AnswerRecorded(correct bool)
	XPAwarded(amount int)
	LessonCompleted(first bool)
	BackendError(backend, op string)
	ReminderSent()
}

type UserRepository interface {
	Save(ctx context.Context, user *entities.User) (bool, error)
	IsActive(ctx context.Context, userID int64) (bool, error)
}

// ReminderRepository pages through streak reminder candidates and records sends.
type ReminderRepository interface {
	ListCandidates(ctx context.Context, progressKey string, afterID int64, limit int) ([]*entities.StreakCandidate, error)
	MarkSent(ctx context.Context, userID int64, day string) error
}

// UserDeactivator stops reminders to users that can no longer be reached.
type UserDeactivator interface {
	Deactivate(ctx context.Context, userID int64) error
}

// ReminderNotifier delivers streak reminders to users.
// It returns an error wrapping ErrRecipientBlocked when the user blocked the bot.
type ReminderNotifier interface {
	SendStreakReminder(ctx context.Context, reminder entities.StreakReminder) error
}

type noopMetrics struct{}

func (noopMetrics) AnswerRecorded(bool)         {}
func (noopMetrics) XPAwarded(int)               {}
func (noopMetrics) LessonCompleted(bool)        {}
func (noopMetrics) BackendError(string, string) {}
func (noopMetrics) ReminderSent()               {}
