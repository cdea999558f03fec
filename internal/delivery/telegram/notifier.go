package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
	"github.com/aliskhannn/spanish-trainer/internal/service"
)

// SendStreakReminder delivers a streak reminder to the user's chat.
func (h *Handler) SendStreakReminder(_ context.Context, reminder entities.StreakReminder) error {
	msg := newMessage(reminder.ChatID, buildStreakReminder(reminder))
	msg.ReplyMarkup = buildStartKeyboard(h.webAppURL)

	if _, err := h.bot.Send(msg); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
			return fmt.Errorf("send streak reminder: %w: %v", service.ErrRecipientBlocked, err)
		}
		return fmt.Errorf("send streak reminder: %w", err)
	}
	return nil
}
