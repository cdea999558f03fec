package entities

import "time"

// User is a Telegram user known to the bot.
type User struct {
	ID        int64
	ChatID    int64
	IsActive  bool
	CreatedAt time.Time
}

// NewUser creates an active user for the given Telegram ids.
func NewUser(id, chatID int64) *User {
	return &User{
		ID:        id,
		ChatID:    chatID,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
}
