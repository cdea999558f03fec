package service

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/aliskhannn/spanish-trainer/internal/storage"
)

// LedgerStore opens per-user ledgers over the user's backends.
// Sessions of the same user never interleave.
type LedgerStore struct {
	provider BackendProvider
	locks    *storage.UserLocks
	logger   *zap.Logger
	opts     []LedgerOption
}

// NewLedgerStore creates a LedgerStore. opts apply to every ledger it opens.
func NewLedgerStore(provider BackendProvider, logger *zap.Logger, opts ...LedgerOption) *LedgerStore {
	return &LedgerStore{
		provider: provider,
		locks:    storage.NewUserLocks(),
		logger:   logger,
		opts:     opts,
	}
}

// Open locks the user, loads their ledger and returns it with the release
// func. The caller must call release when the session ends.
func (s *LedgerStore) Open(ctx context.Context, userID int64, opts ...LedgerOption) (*Ledger, func()) {
	release := s.locks.Lock(userID)

	all := slices.Concat(
		[]LedgerOption{WithLogger(s.logger.With(zap.Int64("user_id", userID)))},
		s.opts,
		opts,
	)

	l := NewLedger(s.provider(userID), all...)
	l.Load(ctx)

	return l, release
}

// With runs fn inside a session of the user.
func (s *LedgerStore) With(ctx context.Context, userID int64, fn func(l *Ledger) error, opts ...LedgerOption) error {
	l, release := s.Open(ctx, userID, opts...)
	defer release()

	return fn(l)
}
