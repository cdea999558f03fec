package telegram

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
)

func (h *Handler) handleSettings(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		ledger, release := h.ledgers.Open(ctx, userID)
		settings := *ledger.Settings(ctx)
		release()

		msg := newMessage(chatID, formatSettings(&settings))
		msg.ReplyMarkup = buildSettingsKeyboard(&settings)
		return h.send(msg)
	}
}

// handleSettingsCallback applies a settings change and re-renders the menu.
func (h *Handler) handleSettingsCallback(userID int64, messageID int, data callbackData) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		ledger, release := h.ledgers.Open(ctx, userID)
		defer release()

		switch data.param(0) {
		case settingsGoal:
			goal, err := strconv.Atoi(data.param(1))
			if err != nil || goal <= 0 {
				h.logger.Debug("invalid goal callback", zap.String("data", data.Raw))
				return nil
			}
			ledger.UpdateSettings(ctx, func(s *entities.Settings) { s.DailyGoalXP = goal })
		case settingsAutoSpeak:
			on := data.param(1) == "on"
			ledger.UpdateSettings(ctx, func(s *entities.Settings) { s.AutoSpeak = on })
		case settingsMenu:
		default:
			h.logger.Debug("unknown settings callback", zap.String("data", data.Raw))
			return nil
		}

		settings := ledger.Settings(ctx)
		edit := newEdit(chatID, messageID, formatSettings(settings))
		kb := buildSettingsKeyboard(settings)
		edit.ReplyMarkup = &kb

		return h.edit(edit)
	}
}
