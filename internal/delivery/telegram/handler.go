package telegram

import (
	"context"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Handler struct {
	bot        Bot
	logger     *zap.Logger
	users      UserService
	ledgers    LedgerStore
	webAppURL  string
	httpClient *http.Client
}

func NewHandler(
	bot Bot,
	logger *zap.Logger,
	users UserService,
	ledgers LedgerStore,
	webAppURL string,
) *Handler {
	return &Handler{
		bot:        bot,
		logger:     logger,
		users:      users,
		ledgers:    ledgers,
		webAppURL:  webAppURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	msg := update.Message
	userID := msg.From.ID
	chatID := msg.Chat.ID

	h.logger.Debug("update received",
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", userID),
	)

	if err := h.users.EnsureUser(ctx, userID, chatID); err != nil {
		h.logger.Error("failed to ensure user",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			_ = h.withErrorHandling(h.handleStart())(ctx, chatID)
		case "stats":
			_ = h.withErrorHandling(h.handleStats(userID))(ctx, chatID)
		case "export":
			_ = h.withErrorHandling(h.handleExport(userID))(ctx, chatID)
		case "vocab":
			_ = h.withErrorHandling(h.handleVocab(userID))(ctx, chatID)
		case "reset":
			_ = h.withErrorHandling(h.handleReset())(ctx, chatID)
		case "settings":
			_ = h.withErrorHandling(h.handleSettings(userID))(ctx, chatID)
		case "help":
			_ = h.withErrorHandling(h.handleHelp())(ctx, chatID)
		default:
			_ = h.send(newPlainMessage(chatID, msgUnknownCommand))
		}
		return
	}

	if msg.Document != nil {
		_ = h.withErrorHandling(h.handleDocument(userID, msg.Document))(ctx, chatID)
		return
	}

	if looksLikeSyncCode(msg.Text) {
		_ = h.withErrorHandling(h.handleSyncCode(userID, msg.Text))(ctx, chatID)
		return
	}

	_ = h.send(newPlainMessage(chatID, msgUnknownCommand))
}

func (h *Handler) sendError(chatID int64, text string) {
	_ = h.send(newPlainMessage(chatID, text))
}

func (h *Handler) send(c tgbotapi.Chattable) error {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message", zap.Error(err))
		return err
	}
	return nil
}
