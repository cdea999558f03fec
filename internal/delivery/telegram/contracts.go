package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/spanish-trainer/internal/service"
)

// Bot is the part of *tgbotapi.BotAPI the handler uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetFileDirectURL(fileID string) (string, error)
}

type UserService interface {
	EnsureUser(ctx context.Context, userID, chatID int64) error
}

// LedgerStore opens a user's progress ledger for the length of one update.
type LedgerStore interface {
	Open(ctx context.Context, userID int64, opts ...service.LedgerOption) (*service.Ledger, func())
}
