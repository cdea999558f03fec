package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
	"github.com/aliskhannn/spanish-trainer/internal/storage"
)

// Storage keys. They carry a version so a schema change can migrate.
const (
	ProgressKey       = "spanish_trainer_progress_v2"
	LegacyProgressKey = "spanishTrainer.progress.v1"
	SettingsKey       = "spanish_trainer_settings_v1"
)

// ErrNotLoaded is returned by Save before the ledger has read its backends.
var ErrNotLoaded = errors.New("ledger not loaded")

// Keys are the storage keys a ledger reads and writes.
type Keys struct {
	Progress       string
	LegacyProgress string // read when Progress holds nothing, never written
	Settings       string
}

// DefaultKeys returns the standard storage keys.
func DefaultKeys() Keys {
	return Keys{
		Progress:       ProgressKey,
		LegacyProgress: LegacyProgressKey,
		Settings:       SettingsKey,
	}
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

func WithClock(clock Clock) LedgerOption {
	return func(l *Ledger) { l.clock = clock }
}

// WithLocation sets the timezone that defines the learner's calendar day.
func WithLocation(loc *time.Location) LedgerOption {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

func WithLogger(logger *zap.Logger) LedgerOption {
	return func(l *Ledger) { l.logger = logger }
}

func WithMetrics(m Metrics) LedgerOption {
	return func(l *Ledger) {
		if m != nil {
			l.metrics = m
		}
	}
}

func WithKeys(keys Keys) LedgerOption {
	return func(l *Ledger) { l.keys = keys }
}

// Ledger owns one learner's progress for the length of a session.
//
// Mutations are applied to the in-memory record first and then written to
// every backend. A failing backend never fails the mutation; the in-memory
// record stays authoritative for the session.
type Ledger struct {
	id       string
	backends []Backend
	keys     Keys
	clock    Clock
	loc      *time.Location
	logger   *zap.Logger
	metrics  Metrics

	progress *entities.ProgressRecord
	settings *entities.Settings
	loaded   bool

	// readFailed marks backends whose read failed during Load. Their stored
	// copy is unknown, so ordinary saves leave them alone for the session.
	readFailed []bool
}

// NewLedger creates a ledger over backends listed in priority order.
func NewLedger(backends []Backend, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		id:       uuid.NewString(),
		backends: backends,
		keys:     DefaultKeys(),
		clock:    time.Now,
		loc:      time.Local,
		logger:   zap.NewNop(),
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(zap.String("ledger_id", l.id))

	return l
}

// Load reads progress and settings from the backends.
//
// Every backend is queried; the first valid record in priority order wins.
// Missing or unreadable data falls back to defaults and is never an error.
// Until Load has run, Save refuses to write, so a fresh default can never
// overwrite a populated copy in another backend. A backend that fails to
// read is excluded from ordinary saves until the next Load.
func (l *Ledger) Load(ctx context.Context) *entities.ProgressRecord {
	today, _ := l.days()
	l.readFailed = make([]bool, len(l.backends))

	decodeProgress := func(raw string) (*entities.ProgressRecord, error) {
		return entities.DecodeProgress(raw, today)
	}

	progress, ok := loadFirst(ctx, l, l.keys.Progress, decodeProgress)
	if !ok && l.keys.LegacyProgress != "" {
		progress, ok = loadFirst(ctx, l, l.keys.LegacyProgress, decodeProgress)
	}
	if !ok {
		l.logger.Info("no stored progress, starting fresh")
		progress = entities.NewProgressRecord(today)
	}

	settings, ok := loadFirst(ctx, l, l.keys.Settings, entities.DecodeSettings)
	if !ok {
		settings = entities.NewSettings()
	}

	l.progress = progress
	l.settings = settings
	l.loaded = true

	return l.progress
}

// Loaded reports whether Load has run.
func (l *Ledger) Loaded() bool {
	return l.loaded
}

// Progress returns the current record, reconciled to today.
func (l *Ledger) Progress(ctx context.Context) *entities.ProgressRecord {
	l.ensureLoaded(ctx)

	today, _ := l.days()
	l.progress.ReconcileDay(today)

	return l.progress
}

// Settings returns the learner's settings.
func (l *Ledger) Settings(ctx context.Context) *entities.Settings {
	l.ensureLoaded(ctx)
	return l.settings
}

// Save writes progress and settings to every backend that was read
// successfully. The returned error combines per-backend failures; the caller
// may ignore it.
func (l *Ledger) Save(ctx context.Context) error {
	return l.save(ctx, false)
}

// save writes to the backends. With overwrite set, backends that failed to
// read are written too; only an explicit reset or import does that.
func (l *Ledger) save(ctx context.Context, overwrite bool) error {
	if !l.loaded {
		l.logger.Warn("refusing to save before load")
		return ErrNotLoaded
	}

	progress, err := entities.EncodeProgress(l.progress)
	if err != nil {
		return err
	}
	settings, err := entities.EncodeSettings(l.settings)
	if err != nil {
		return err
	}

	return l.writeAll(ctx, []keyValue{
		{key: l.keys.Progress, value: progress},
		{key: l.keys.Settings, value: settings},
	}, overwrite)
}

// RecordAnswer counts a graded answer.
func (l *Ledger) RecordAnswer(ctx context.Context, isCorrect bool) {
	l.mutate(ctx, func(p *entities.ProgressRecord, _, _ string) {
		p.RecordAnswer(isCorrect)
	})
	l.metrics.AnswerRecorded(isCorrect)
}

// AwardXP adds XP. Negative amounts are ignored.
func (l *Ledger) AwardXP(ctx context.Context, amount int) {
	l.mutate(ctx, func(p *entities.ProgressRecord, _, _ string) {
		p.AwardXP(amount)
	})
	if amount > 0 {
		l.metrics.XPAwarded(amount)
	}
}

// TouchStreak credits today's qualifying activity to the streak.
func (l *Ledger) TouchStreak(ctx context.Context) {
	l.mutate(ctx, func(p *entities.ProgressRecord, today, yesterday string) {
		p.TouchStreakForToday(today, yesterday)
	})
}

// SubmitAnswer records a graded answer; a correct one also earns xp and
// counts as today's qualifying activity. Everything is saved once.
func (l *Ledger) SubmitAnswer(ctx context.Context, isCorrect bool, xp int) {
	l.mutate(ctx, func(p *entities.ProgressRecord, today, yesterday string) {
		p.RecordAnswer(isCorrect)
		if isCorrect {
			p.AwardXP(xp)
			p.TouchStreakForToday(today, yesterday)
		}
	})

	l.metrics.AnswerRecorded(isCorrect)
	if isCorrect && xp > 0 {
		l.metrics.XPAwarded(xp)
	}
}

// CompleteLesson marks a lesson as finished and reports whether it was the
// first completion. XP is only awarded the first time.
func (l *Ledger) CompleteLesson(ctx context.Context, lessonID string, xpReward int) bool {
	var first bool
	l.mutate(ctx, func(p *entities.ProgressRecord, today, yesterday string) {
		first = p.CompleteLesson(lessonID, xpReward, today, yesterday)
	})

	l.metrics.LessonCompleted(first)
	if first && xpReward > 0 {
		l.metrics.XPAwarded(xpReward)
	}

	return first
}

// RecordVocab registers practised words.
func (l *Ledger) RecordVocab(ctx context.Context, words []string, wasCorrect bool) {
	now := l.clock()
	l.mutate(ctx, func(p *entities.ProgressRecord, _, _ string) {
		p.RecordVocab(words, wasCorrect, now)
	})
}

// UpdateSettings applies fn to the settings and saves them.
func (l *Ledger) UpdateSettings(ctx context.Context, fn func(s *entities.Settings)) {
	l.ensureLoaded(ctx)
	fn(l.settings)
	if l.settings.DailyGoalXP <= 0 {
		l.settings.DailyGoalXP = entities.DefaultDailyGoalXP
	}
	l.persist(ctx)
}

// ResetProgress replaces the record with a fresh one and saves it at once.
// Settings are kept.
func (l *Ledger) ResetProgress(ctx context.Context) *entities.ProgressRecord {
	l.ensureLoaded(ctx)

	today, _ := l.days()
	l.progress = entities.NewProgressRecord(today)
	l.logger.Info("progress reset")

	l.persistAll(ctx)
	return l.progress
}

// Import replaces progress (and settings, when present) with an exported
// document or a bare progress record.
func (l *Ledger) Import(ctx context.Context, data []byte) error {
	l.ensureLoaded(ctx)

	today, _ := l.days()
	progress, settings, err := entities.ParseImport(data, today)
	if err != nil {
		return err
	}

	l.progress = progress
	if settings != nil {
		l.settings = settings
	}
	l.logger.Info("progress imported",
		zap.Int("xp_total", progress.XPTotal),
		zap.Int("streak", progress.Streak),
	)

	l.persistAll(ctx)
	return nil
}

// Export returns the current progress and settings as an export document.
func (l *Ledger) Export(ctx context.Context) entities.ExportPayload {
	return entities.NewExportPayload(l.Progress(ctx), l.settings, l.clock())
}

// Summary returns the figures shown on the home and stats screens.
func (l *Ledger) Summary(ctx context.Context) Summary {
	p := l.Progress(ctx)
	goal := l.settings.DailyGoalXP

	return Summary{
		DayKey:           p.DayKey,
		XPTotal:          p.XPTotal,
		XPToday:          p.XPToday(),
		DailyGoalXP:      goal,
		GoalProgress:     p.GoalProgress(goal),
		Streak:           p.Streak,
		AnsweredToday:    p.AnsweredToday,
		CorrectToday:     p.CorrectToday,
		Accuracy:         p.Accuracy(),
		WordsLearned:     p.WordsLearned,
		LessonsCompleted: p.LessonsCompleted(),
	}
}

// Summary contains progress figures for presentation.
type Summary struct {
	DayKey           string `json:"dayKey"`
	XPTotal          int    `json:"xpTotal"`
	XPToday          int    `json:"xpToday"`
	DailyGoalXP      int    `json:"dailyGoalXp"`
	GoalProgress     int    `json:"goalProgress"` // percent of the daily goal, 0-100
	Streak           int    `json:"streak"`
	AnsweredToday    int    `json:"answeredToday"`
	CorrectToday     int    `json:"correctToday"`
	Accuracy         int    `json:"accuracy"` // percent, rounded
	WordsLearned     int    `json:"wordsLearned"`
	LessonsCompleted int    `json:"lessonsCompleted"`
}

func (l *Ledger) ensureLoaded(ctx context.Context) {
	if !l.loaded {
		l.Load(ctx)
	}
}

func (l *Ledger) mutate(ctx context.Context, fn func(p *entities.ProgressRecord, today, yesterday string)) {
	l.ensureLoaded(ctx)

	today, yesterday := l.days()
	l.progress.ReconcileDay(today)
	fn(l.progress, today, yesterday)

	l.persist(ctx)
}

// persist saves on a best-effort basis. Failures were already logged per backend.
func (l *Ledger) persist(ctx context.Context) {
	if err := l.save(ctx, false); err != nil {
		l.logger.Debug("save incomplete", zap.Error(err))
	}
}

// persistAll is persist for changes the learner asked to apply everywhere.
func (l *Ledger) persistAll(ctx context.Context) {
	if err := l.save(ctx, true); err != nil {
		l.logger.Debug("save incomplete", zap.Error(err))
	}
}

func (l *Ledger) days() (today, yesterday string) {
	now := l.clock()
	return entities.DayKey(now, l.loc), entities.YesterdayKey(now, l.loc)
}

type keyValue struct {
	key   string
	value string
}

type readResult struct {
	backend string
	raw     string
	err     error
}

// readAll queries every backend concurrently; results keep backend order.
func (l *Ledger) readAll(ctx context.Context, key string) []readResult {
	results := make([]readResult, len(l.backends))

	var g errgroup.Group
	for i, b := range l.backends {
		g.Go(func() error {
			raw, err := b.Get(ctx, key)
			results[i] = readResult{backend: b.Name(), raw: raw, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		switch {
		case r.err == nil, errors.Is(r.err, storage.ErrNotFound):
		case errors.Is(r.err, storage.ErrUnavailable):
			l.logger.Debug("backend unavailable", zap.String("backend", r.backend))
		default:
			if i < len(l.readFailed) {
				l.readFailed[i] = true
			}
			l.metrics.BackendError(r.backend, "get")
			l.logger.Warn("backend read failed",
				zap.String("backend", r.backend),
				zap.String("key", key),
				zap.Error(r.err),
			)
		}
	}

	return results
}

// writeAll writes entries to the backends concurrently. Backends that failed
// to read are skipped unless overwrite is set.
func (l *Ledger) writeAll(ctx context.Context, entries []keyValue, overwrite bool) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)

	for i, b := range l.backends {
		if !overwrite && i < len(l.readFailed) && l.readFailed[i] {
			l.logger.Debug("skipping backend that failed to read", zap.String("backend", b.Name()))
			continue
		}

		g.Go(func() error {
			for _, e := range entries {
				err := b.Set(ctx, e.key, e.value)
				if err == nil {
					continue
				}
				if errors.Is(err, storage.ErrUnavailable) {
					return nil
				}

				l.metrics.BackendError(b.Name(), "set")
				l.logger.Warn("backend write failed",
					zap.String("backend", b.Name()),
					zap.String("key", e.key),
					zap.Error(err),
				)

				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", b.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errs
}

// loadFirst decodes the first valid value stored under key, in backend order.
func loadFirst[T any](ctx context.Context, l *Ledger, key string, decode func(raw string) (T, error)) (T, bool) {
	var zero T

	for _, r := range l.readAll(ctx, key) {
		if r.err != nil {
			continue
		}

		v, err := decode(r.raw)
		if err != nil {
			l.logger.Warn("discarding unreadable stored value",
				zap.String("backend", r.backend),
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}

		l.logger.Debug("loaded stored value",
			zap.String("backend", r.backend),
			zap.String("key", key),
		)
		return v, true
	}

	return zero, false
}
