package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/spanish-trainer/internal/app"
	"github.com/aliskhannn/spanish-trainer/internal/config"
	"github.com/aliskhannn/spanish-trainer/internal/delivery/httpapi"
	"github.com/aliskhannn/spanish-trainer/internal/delivery/telegram"
	"github.com/aliskhannn/spanish-trainer/internal/infra/postgres"
	"github.com/aliskhannn/spanish-trainer/internal/infra/postgres/repository"
	"github.com/aliskhannn/spanish-trainer/internal/logger"
	"github.com/aliskhannn/spanish-trainer/internal/metrics"
	"github.com/aliskhannn/spanish-trainer/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.ValidateBot(); err != nil {
		log.Fatal(err)
	}

	zapLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("bot stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Initialize storage.
	dsn, err := cfg.DB.DSN()
	if err != nil {
		return err
	}
	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        cfg.DB.MaxConnections,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
		ConnectTimeout:  cfg.DB.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}

	local, err := app.OpenLocalStorage(cfg.Storage, afero.NewOsFs(), zapLogger)
	if err != nil {
		return fmt.Errorf("open local storage: %w", err)
	}
	defer func() { _ = local.Close() }()

	kvRepo := repository.NewKVRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	reminderRepo := repository.NewRemindersRepository(pool)

	cloud := func(userID int64) service.Backend { return kvRepo.CloudSlot(userID) }

	// Initialize metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMetrics := metrics.NewPrometheus(registry)

	// Initialize services.
	ledgers := service.NewLedgerStore(app.Provider(cloud, local), zapLogger,
		service.WithKeys(service.Keys{
			Progress:       cfg.Storage.ProgressKey,
			LegacyProgress: cfg.Storage.LegacyProgressKey,
			Settings:       cfg.Storage.SettingsKey,
		}),
		service.WithLocation(loc),
		service.WithMetrics(promMetrics),
	)
	userService := service.NewUserService(userRepo)
	reminderService := service.NewReminderService(reminderRepo, userRepo, service.ReminderConfig{
		Cron:        cfg.Reminders.Cron,
		Hour:        cfg.Reminders.Hour,
		Location:    loc,
		ProgressKey: cfg.Storage.ProgressKey,
	}, promMetrics, zapLogger.Named("reminders"))

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	bot.Debug = cfg.Env != "production"
	zapLogger.Info("authorized on account", zap.String("username", bot.Self.UserName))

	// Set commands.
	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Открыть тренажёр",
		},
		{
			Command:     "stats",
			Description: "Показать прогресс",
		},
		{
			Command:     "export",
			Description: "Выгрузить прогресс в файл",
		},
		{
			Command:     "vocab",
			Description: "Словарь в Excel",
		},
		{
			Command:     "settings",
			Description: "Цель дня и озвучка",
		},
		{
			Command:     "reset",
			Description: "Сбросить прогресс",
		},
		{
			Command:     "help",
			Description: "Помощь",
		},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		zapLogger.Warn("failed to set bot commands", zap.Error(err))
	}

	handler := telegram.NewHandler(bot, zapLogger.Named("telegram"), userService, ledgers, cfg.WebAppURL)
	reminderService.SetNotifier(handler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := handler.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("telegram handler: %w", err)
		}
		return nil
	})

	if cfg.Reminders.Enabled {
		g.Go(func() error {
			return reminderService.Start(gctx)
		})
	}

	if cfg.HTTP.Enabled {
		server := httpapi.NewServer(httpapi.Config{
			Addr:           cfg.HTTP.Addr,
			BotToken:       cfg.TelegramAPIToken,
			InitDataMaxAge: cfg.HTTP.InitDataMaxAge,
			ReadTimeout:    cfg.HTTP.ReadTimeout,
			WriteTimeout:   cfg.HTTP.WriteTimeout,
		}, ledgers, userService, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), zapLogger.Named("http"))

		g.Go(func() error {
			return server.Run(gctx)
		})
	}

	err = g.Wait()
	zapLogger.Info("shutdown complete")
	return err
}
