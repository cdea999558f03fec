package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Remove the user's "clock".
	defer func() {
		if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			h.logger.Debug("callback answer error", zap.Error(err))
		}
	}()

	if cb.Message == nil {
		return
	}

	data := decodeCallback(cb.Data)
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID

	switch data.Action {
	case actionStats:
		_ = h.withErrorHandling(h.handleStatsCallback(userID, messageID))(ctx, chatID)
	case actionExport:
		_ = h.withErrorHandling(h.handleExport(userID))(ctx, chatID)
	case actionReset:
		_ = h.withErrorHandling(h.handleResetCallback(userID, messageID, data.param(0)))(ctx, chatID)
	case actionSettings:
		_ = h.withErrorHandling(h.handleSettingsCallback(userID, messageID, data))(ctx, chatID)
	default:
		h.logger.Debug("unknown callback", zap.String("data", data.Raw))
	}
}

// handleStatsCallback refreshes the stats message in place.
func (h *Handler) handleStatsCallback(userID int64, messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		ledger, release := h.ledgers.Open(ctx, userID)
		summary := ledger.Summary(ctx)
		release()

		edit := newEdit(chatID, messageID, formatStats(summary))
		kb := buildStatsKeyboard()
		edit.ReplyMarkup = &kb

		return h.edit(edit)
	}
}

// handleResetCallback applies the answer to the reset confirmation.
func (h *Handler) handleResetCallback(userID int64, messageID int, choice string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if choice != resetConfirm {
			return h.edit(newEdit(chatID, messageID, md(msgResetCancelled)))
		}

		ledger, release := h.ledgers.Open(ctx, userID)
		ledger.ResetProgress(ctx)
		release()

		h.logger.Info("progress reset from bot", zap.Int64("user_id", userID))
		return h.edit(newEdit(chatID, messageID, md(msgResetDone)))
	}
}

// edit sends a message edit. Re-rendering identical content is not an error.
func (h *Handler) edit(edit tgbotapi.EditMessageTextConfig) error {
	if _, err := h.bot.Send(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		h.logger.Error("failed to edit telegram message", zap.Error(err))
		return err
	}
	return nil
}
