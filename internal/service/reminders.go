package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
)

// ErrRecipientBlocked is returned by a notifier when the user blocked the bot.
var ErrRecipientBlocked = errors.New("recipient blocked the bot")

const (
	reminderBatchSize     = 100
	reminderMaxConcurrent = 10
)

// ReminderConfig controls when streak reminders go out.
type ReminderConfig struct {
	Cron        string         // schedule, e.g. "0 * * * *"
	Hour        int            // local hour to send at; negative sends on every tick
	Location    *time.Location // calendar used for days and the hour check
	ProgressKey string
}

// ReminderService nudges learners whose streak would break tonight.
type ReminderService struct {
	repo     ReminderRepository
	users    UserDeactivator
	notifier ReminderNotifier
	metrics  Metrics
	cfg      ReminderConfig
	clock    Clock
	logger   *zap.Logger
}

// NewReminderService creates a new reminder service. users may be nil.
func NewReminderService(
	repo ReminderRepository,
	users UserDeactivator,
	cfg ReminderConfig,
	metrics Metrics,
	logger *zap.Logger,
) *ReminderService {
	if cfg.Cron == "" {
		cfg.Cron = "0 * * * *"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ProgressKey == "" {
		cfg.ProgressKey = ProgressKey
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &ReminderService{
		repo:    repo,
		users:   users,
		metrics: metrics,
		cfg:     cfg,
		clock:   time.Now,
		logger:  logger,
	}
}

// SetNotifier sets the notifier (called after handler is created).
func (s *ReminderService) SetNotifier(notifier ReminderNotifier) {
	s.notifier = notifier
}

// Start runs the cron scheduler until ctx is cancelled.
func (s *ReminderService) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.cfg.Location))

	_, err := c.AddFunc(s.cfg.Cron, func() {
		s.logger.Debug("cron triggered: checking streak reminders")
		if _, err := s.SendStreakReminders(ctx); err != nil {
			s.logger.Error("failed to send streak reminders", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	c.Start()
	s.logger.Info("reminder service started",
		zap.String("cron", s.cfg.Cron),
		zap.Int("hour", s.cfg.Hour),
		zap.String("timezone", s.cfg.Location.String()),
	)

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("reminder service stopped")

	return nil
}

// SendStreakReminders sends due reminders and returns how many went out.
// Outside the configured hour it does nothing.
func (s *ReminderService) SendStreakReminders(ctx context.Context) (int, error) {
	if s.notifier == nil {
		return 0, errors.New("notifier not initialized")
	}

	now := s.clock().In(s.cfg.Location)
	if s.cfg.Hour >= 0 && now.Hour() != s.cfg.Hour {
		return 0, nil
	}

	today := entities.DayKey(now, s.cfg.Location)
	yesterday := entities.YesterdayKey(now, s.cfg.Location)

	var lastID int64
	totalSent := 0

	for {
		candidates, err := s.repo.ListCandidates(ctx, s.cfg.ProgressKey, lastID, reminderBatchSize)
		if err != nil {
			return totalSent, fmt.Errorf("list reminder candidates: %w", err)
		}
		if len(candidates) == 0 {
			break
		}

		totalSent += s.processBatch(ctx, candidates, today, yesterday)

		if len(candidates) < reminderBatchSize {
			break
		}
		lastID = candidates[len(candidates)-1].UserID
	}

	s.logger.Info("streak reminders processed",
		zap.String("day", today),
		zap.Int("total_sent", totalSent),
	)

	return totalSent, nil
}

// processBatch handles a batch of candidates concurrently.
func (s *ReminderService) processBatch(ctx context.Context, candidates []*entities.StreakCandidate, today, yesterday string) int {
	sem := make(chan struct{}, reminderMaxConcurrent)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sent int
	)

	for _, c := range candidates {
		wg.Add(1)
		sem <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			ok, err := s.processCandidate(ctx, c, today, yesterday)
			if err != nil {
				s.logger.Error("failed to process streak reminder",
					zap.Int64("user_id", c.UserID),
					zap.Error(err),
				)
				return
			}
			if ok {
				mu.Lock()
				sent++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return sent
}

func (s *ReminderService) processCandidate(ctx context.Context, c *entities.StreakCandidate, today, yesterday string) (bool, error) {
	p, err := entities.DecodeProgress(c.Progress, today)
	if err != nil {
		s.logger.Debug("skipping unreadable progress", zap.Int64("user_id", c.UserID), zap.Error(err))
		return false, nil
	}

	if !entities.StreakAtRisk(p, c.LastSentDay, today, yesterday) {
		return false, nil
	}

	reminder := entities.StreakReminder{
		UserID: c.UserID,
		ChatID: c.ChatID,
		Streak: p.Streak,
	}
	if err := s.notifier.SendStreakReminder(ctx, reminder); err != nil {
		if errors.Is(err, ErrRecipientBlocked) && s.users != nil {
			if derr := s.users.Deactivate(ctx, c.UserID); derr != nil {
				return false, fmt.Errorf("deactivate blocked user: %w", derr)
			}
			s.logger.Info("user blocked the bot, deactivated", zap.Int64("user_id", c.UserID))
			return false, nil
		}
		return false, fmt.Errorf("send notification: %w", err)
	}

	s.metrics.ReminderSent()

	if err := s.repo.MarkSent(ctx, c.UserID, today); err != nil {
		// The user may get a second reminder on the next tick.
		s.logger.Warn("failed to mark reminder sent", zap.Int64("user_id", c.UserID), zap.Error(err))
	}

	s.logger.Info("streak reminder sent",
		zap.Int64("user_id", c.UserID),
		zap.Int("streak", p.Streak),
	)

	return true, nil
}
