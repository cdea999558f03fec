package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/aliskhannn/spanish-trainer/internal/app"
	"github.com/aliskhannn/spanish-trainer/internal/config"
	"github.com/aliskhannn/spanish-trainer/internal/infra/postgres"
	"github.com/aliskhannn/spanish-trainer/internal/infra/postgres/repository"
	"github.com/aliskhannn/spanish-trainer/internal/logger"
	"github.com/aliskhannn/spanish-trainer/internal/service"
)

var errNoUser = errors.New("--user is required")

type cli struct {
	fs        afero.Fs
	configDir string
	userID    int64
	localOnly bool

	// open builds the ledger store; tests replace it.
	open func(ctx context.Context, c *cli) (*service.LedgerStore, func(), error)
}

func newCLI() *cli {
	return &cli{
		fs:   afero.NewOsFs(),
		open: openLedgers,
	}
}

// withLedger runs fn in a session of the selected user.
func (c *cli) withLedger(ctx context.Context, fn func(l *service.Ledger) error) error {
	if c.userID == 0 {
		return errNoUser
	}

	ledgers, closeFn, err := c.open(ctx, c)
	if err != nil {
		return err
	}
	defer closeFn()

	return ledgers.With(ctx, c.userID, fn)
}

func openLedgers(ctx context.Context, c *cli) (*service.LedgerStore, func(), error) {
	var paths []string
	if c.configDir != "" {
		paths = append(paths, c.configDir)
	}

	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateCLI(c.localOnly); err != nil {
		return nil, nil, err
	}

	zapLogger, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	local, err := app.OpenLocalStorage(cfg.Storage, c.fs, zapLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("open local storage: %w", err)
	}
	closers := []func(){func() { _ = local.Close() }}

	var cloud app.CloudSlots
	if !c.localOnly {
		dsn, err := cfg.DB.DSN()
		if err != nil {
			_ = local.Close()
			return nil, nil, err
		}
		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:       2,
			ConnectTimeout: cfg.DB.ConnectTimeout,
		})
		if err != nil {
			_ = local.Close()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		kv := repository.NewKVRepository(pool)
		cloud = func(userID int64) service.Backend { return kv.CloudSlot(userID) }
	}

	ledgers := service.NewLedgerStore(app.Provider(cloud, local), zapLogger,
		service.WithKeys(service.Keys{
			Progress:       cfg.Storage.ProgressKey,
			LegacyProgress: cfg.Storage.LegacyProgressKey,
			Settings:       cfg.Storage.SettingsKey,
		}),
		service.WithLocation(loc),
	)

	closeFn := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		_ = zapLogger.Sync()
	}

	zapLogger.Debug("ledger store ready", zap.Bool("local_only", c.localOnly))
	return ledgers, closeFn, nil
}
