package telegram

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
)

// dailyGoalOptions are the goals offered in the settings menu.
var dailyGoalOptions = []int{20, 50, 100, 150}

// buildStartKeyboard offers the Mini App when its URL is configured.
func buildStartKeyboard(webAppURL string) *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if webAppURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🇪🇸 Открыть тренажёр", webAppURL),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📊 Мой прогресс", buildStatsCallback()),
	))

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// buildStatsKeyboard builds keyboard for the stats screen.
func buildStatsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Обновить", buildStatsCallback()),
			tgbotapi.NewInlineKeyboardButtonData("💾 Экспорт", buildExportCallback()),
		),
	)
}

// buildResetConfirmKeyboard asks to confirm a progress reset.
func buildResetConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Да, сбросить", buildResetConfirmCallback()),
			tgbotapi.NewInlineKeyboardButtonData("Отмена", buildResetCancelCallback()),
		),
	)
}

// buildSettingsKeyboard builds the settings menu for the current values.
func buildSettingsKeyboard(s *entities.Settings) tgbotapi.InlineKeyboardMarkup {
	goals := make([]tgbotapi.InlineKeyboardButton, 0, len(dailyGoalOptions))
	for _, goal := range dailyGoalOptions {
		label := strconv.Itoa(goal) + " XP"
		if goal == s.DailyGoalXP {
			label = "✅ " + label
		}
		goals = append(goals, tgbotapi.NewInlineKeyboardButtonData(label, buildSettingsCallback(settingsGoal, strconv.Itoa(goal))))
	}

	speak := "🔊 Включить автоозвучку"
	next := "on"
	if s.AutoSpeak {
		speak = "🔇 Выключить автоозвучку"
		next = "off"
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		goals,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(speak, buildSettingsCallback(settingsAutoSpeak, next)),
		),
	)
}
