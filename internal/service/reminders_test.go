package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
)

// fakeReminderRepo expects candidates ordered by user id.
type fakeReminderRepo struct {
	mu          sync.Mutex
	candidates  []*entities.StreakCandidate
	sent        map[int64]string
	deactivated map[int64]bool
	listErr     error
}

func (r *fakeReminderRepo) ListCandidates(_ context.Context, _ string, afterID int64, limit int) ([]*entities.StreakCandidate, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var page []*entities.StreakCandidate
	for _, c := range r.candidates {
		if c.UserID <= afterID || r.deactivated[c.UserID] {
			continue
		}
		page = append(page, c)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

// Deactivate drops the user from later pages, as the users table does.
func (r *fakeReminderRepo) Deactivate(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deactivated[userID] = true
	return nil
}

func (r *fakeReminderRepo) MarkSent(_ context.Context, userID int64, day string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent[userID] = day
	return nil
}

type fakeDeactivator struct {
	mu          sync.Mutex
	deactivated []int64
}

func (d *fakeDeactivator) Deactivate(_ context.Context, userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.deactivated = append(d.deactivated, userID)
	return nil
}

type fakeNotifier struct {
	mu         sync.Mutex
	reminders  []entities.StreakReminder
	failFor    int64
	blockedFor int64
	blocked    map[int64]bool
}

func (n *fakeNotifier) SendStreakReminder(_ context.Context, r entities.StreakReminder) error {
	switch r.UserID {
	case n.failFor:
		return errors.New("telegram: Too Many Requests")
	case n.blockedFor:
		return fmt.Errorf("send: %w", ErrRecipientBlocked)
	}
	if n.blocked[r.UserID] {
		return fmt.Errorf("send: %w", ErrRecipientBlocked)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.reminders = append(n.reminders, r)
	return nil
}

func (n *fakeNotifier) userIDs() []int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	ids := make([]int64, 0, len(n.reminders))
	for _, r := range n.reminders {
		ids = append(ids, r.UserID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func newReminderFixture(t *testing.T, now time.Time, candidates ...*entities.StreakCandidate) (*ReminderService, *fakeReminderRepo, *fakeNotifier) {
	t.Helper()

	repo := &fakeReminderRepo{candidates: candidates, sent: map[int64]string{}, deactivated: map[int64]bool{}}
	notifier := &fakeNotifier{}

	s := NewReminderService(repo, nil, ReminderConfig{Hour: 19, Location: time.UTC}, nil, zaptest.NewLogger(t))
	s.clock = func() time.Time { return now }
	s.SetNotifier(notifier)

	return s, repo, notifier
}

func TestSendStreakReminders(t *testing.T) {
	now := time.Date(2024, 1, 10, 19, 0, 0, 0, time.UTC)

	candidates := []*entities.StreakCandidate{
		// Active yesterday, not yet today: at risk.
		{UserID: 1, ChatID: 11, Progress: `{"streak":4,"dayKey":"2024-01-09","lastActiveDay":"2024-01-09"}`},
		// Already practised today.
		{UserID: 2, ChatID: 12, Progress: `{"streak":5,"dayKey":"2024-01-10","lastActiveDay":"2024-01-10"}`},
		// Streak already broken.
		{UserID: 3, ChatID: 13, Progress: `{"streak":2,"dayKey":"2024-01-07","lastActiveDay":"2024-01-07"}`},
		// Reminded earlier today.
		{UserID: 4, ChatID: 14, Progress: `{"streak":3,"lastActiveDay":"2024-01-09"}`, LastSentDay: "2024-01-10"},
		// Corrupt record.
		{UserID: 5, ChatID: 15, Progress: `{oops`},
		// Reminded yesterday, at risk again.
		{UserID: 6, ChatID: 16, Progress: `{"streak":1,"lastActiveDay":"2024-01-09"}`, LastSentDay: "2024-01-09"},
	}

	s, repo, notifier := newReminderFixture(t, now, candidates...)

	sent, err := s.SendStreakReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	assert.Equal(t, []int64{1, 6}, notifier.userIDs())
	assert.Equal(t, map[int64]string{1: "2024-01-10", 6: "2024-01-10"}, repo.sent)
}

func TestSendStreakRemindersOutsideHour(t *testing.T) {
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	candidate := &entities.StreakCandidate{UserID: 1, Progress: `{"streak":4,"lastActiveDay":"2024-01-09"}`}

	s, _, notifier := newReminderFixture(t, now, candidate)

	sent, err := s.SendStreakReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, notifier.userIDs())
}

func TestSendStreakRemindersPaginates(t *testing.T) {
	now := time.Date(2024, 1, 10, 19, 30, 0, 0, time.UTC)

	candidates := make([]*entities.StreakCandidate, 0, reminderBatchSize+5)
	for i := range reminderBatchSize + 5 {
		candidates = append(candidates, &entities.StreakCandidate{
			UserID:   int64(i + 1),
			Progress: `{"streak":2,"lastActiveDay":"2024-01-09"}`,
		})
	}

	s, repo, _ := newReminderFixture(t, now, candidates...)

	sent, err := s.SendStreakReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reminderBatchSize+5, sent)
	assert.Len(t, repo.sent, reminderBatchSize+5)
}

func TestSendStreakRemindersNotifierFailure(t *testing.T) {
	now := time.Date(2024, 1, 10, 19, 0, 0, 0, time.UTC)
	candidates := []*entities.StreakCandidate{
		{UserID: 1, Progress: `{"streak":4,"lastActiveDay":"2024-01-09"}`},
		{UserID: 2, Progress: `{"streak":4,"lastActiveDay":"2024-01-09"}`},
	}

	s, repo, notifier := newReminderFixture(t, now, candidates...)
	notifier.failFor = 1

	sent, err := s.SendStreakReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.NotContains(t, repo.sent, int64(1))
}

func TestSendStreakRemindersDeactivatesBlockedUsers(t *testing.T) {
	now := time.Date(2024, 1, 10, 19, 0, 0, 0, time.UTC)
	candidates := []*entities.StreakCandidate{
		{UserID: 1, Progress: `{"streak":4,"lastActiveDay":"2024-01-09"}`},
		{UserID: 2, Progress: `{"streak":4,"lastActiveDay":"2024-01-09"}`},
	}

	s, repo, notifier := newReminderFixture(t, now, candidates...)
	users := &fakeDeactivator{}
	s.users = users
	notifier.blockedFor = 2

	sent, err := s.SendStreakReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []int64{2}, users.deactivated)
	assert.NotContains(t, repo.sent, int64(2))
}

func TestSendStreakRemindersPagingSurvivesDeactivation(t *testing.T) {
	now := time.Date(2024, 1, 10, 19, 0, 0, 0, time.UTC)

	total := 2*reminderBatchSize + 10
	candidates := make([]*entities.StreakCandidate, 0, total)
	for i := range total {
		candidates = append(candidates, &entities.StreakCandidate{
			UserID:   int64(i + 1),
			Progress: `{"streak":2,"lastActiveDay":"2024-01-09"}`,
		})
	}

	s, repo, notifier := newReminderFixture(t, now, candidates...)
	s.users = repo

	// Every other user in the first page blocked the bot.
	notifier.blocked = map[int64]bool{}
	for id := int64(1); id <= reminderBatchSize; id += 2 {
		notifier.blocked[id] = true
	}

	sent, err := s.SendStreakReminders(context.Background())
	require.NoError(t, err)

	blocked := len(notifier.blocked)
	assert.Equal(t, total-blocked, sent)
	assert.Len(t, repo.sent, total-blocked)
	assert.Len(t, repo.deactivated, blocked)
}

func TestSendStreakRemindersRepoError(t *testing.T) {
	s, repo, _ := newReminderFixture(t, time.Date(2024, 1, 10, 19, 0, 0, 0, time.UTC))
	repo.listErr = errors.New("db down")

	_, err := s.SendStreakReminders(context.Background())
	assert.Error(t, err)
}
