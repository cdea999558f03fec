// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
	"github.com/aliskhannn/spanish-trainer/internal/service"
)

// Message texts and limits.
const (
	msgInternalError   = "Что‑то пошло не так. Попробуйте позже."
	msgImportFailed    = "Ошибка импорта 😕 Пришлите код синка из тренажёра или файл экспорта .json."
	msgNotJSONFile     = "Пришлите файл экспорта с расширением .json."
	msgFileTooLarge    = "Файл слишком большой для импорта."
	msgResetCancelled  = "Сброс отменён."
	msgResetConfirm    = "Точно сбросить прогресс? XP, серия, уроки и словарь будут обнулены. Настройки останутся."
	msgResetDone       = "Прогресс сброшен."
	msgNothingToExport = "Словарь пока пуст: ответьте на несколько вопросов в тренажёре."
	msgUnknownCommand  = "Неизвестная команда. Список доступных команд:\n\n/stats — мой прогресс\n/export — экспорт прогресса\n/vocab — словарь в Excel\n/reset — сбросить прогресс\n/settings — настройки\n/help — помощь"
	msgHelp            = "Как пользоваться ботом:\n\n/start — открыть тренажёр\n/stats — XP, серия, точность и цель дня\n/export — файл с прогрессом и настройками\n/vocab — изученные слова в Excel\n/settings — цель дня и озвучка\n/reset — начать заново\n\nЧтобы перенести прогресс, нажмите «Синк в бота» в тренажёре и отправьте скопированный код сюда, или пришлите файл экспорта .json."
	exportFileName     = "spanish-trainer-export.json"
	vocabFileName      = "spanish-trainer-vocab.xlsx"
	progressBarLength  = 10
	maxImportFileSize  = 1 << 20
)

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newPlainMessage creates a plain message without MarkdownV2 parse mode.
func newPlainMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, text)
}

// newEdit creates an edit with MarkdownV2 parse mode.
func newEdit(chatID int64, msgID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	return edit
}

// welcomeMessage builds the /start message (MarkdownV2 safe).
func welcomeMessage() string {
	var sb strings.Builder

	sb.WriteString(bold("¡Hola! 👋"))
	sb.WriteString("\n\n")
	sb.WriteString(md("Это тренажёр испанского: короткие уроки, XP за верные ответы и "))
	sb.WriteString(bold("серия"))
	sb.WriteString(md(" за каждый день занятий."))
	sb.WriteString("\n\n")
	sb.WriteString(md("📊 /stats — мой прогресс\n💾 /export — экспорт прогресса\n📚 /vocab — словарь в Excel\n❓ /help — помощь"))

	return sb.String()
}

// formatSettings renders the settings screen (MarkdownV2 safe).
func formatSettings(s *entities.Settings) string {
	var sb strings.Builder

	sb.WriteString(bold("⚙️ Настройки"))
	sb.WriteString("\n\n")
	sb.WriteString(bold("🎯 Цель дня: "))
	sb.WriteString(md(fmt.Sprintf("%d XP", s.DailyGoalXP)))
	sb.WriteString("\n")
	sb.WriteString(bold("🔊 Автоозвучка: "))
	sb.WriteString(md(formatBool(s.AutoSpeak)))

	return sb.String()
}

func formatBool(b bool) string {
	if b {
		return "Включено ✅"
	}
	return "Выключено ❌"
}

// formatStats renders the progress summary (MarkdownV2 safe).
func formatStats(s service.Summary) string {
	var sb strings.Builder

	sb.WriteString(bold("📊 Мой прогресс"))
	sb.WriteString("\n\n")

	sb.WriteString(md(fmt.Sprintf("⭐ XP всего: %d\n", s.XPTotal)))
	sb.WriteString(md(fmt.Sprintf("🔥 Серия: %d %s\n", s.Streak, pluralDays(s.Streak))))
	sb.WriteString("\n")

	sb.WriteString(md(fmt.Sprintf("🎯 Цель дня: %d/%d XP\n", s.XPToday, s.DailyGoalXP)))
	sb.WriteString(md(buildProgressBar(s.XPToday, s.DailyGoalXP, progressBarLength)))
	sb.WriteString(md(fmt.Sprintf(" %d%%\n\n", s.GoalProgress)))

	sb.WriteString(md(fmt.Sprintf("✅ Ответов сегодня: %d (верно %d, точность %d%%)\n",
		s.AnsweredToday, s.CorrectToday, s.Accuracy)))
	sb.WriteString(md(fmt.Sprintf("📚 Слов изучено: %d\n", s.WordsLearned)))
	sb.WriteString(md(fmt.Sprintf("🏆 Уроков пройдено: %d", s.LessonsCompleted)))

	return sb.String()
}

// formatImportResult confirms a successful import (MarkdownV2 safe).
func formatImportResult(p *entities.ProgressRecord) string {
	return fmt.Sprintf("%s\n\n%s",
		bold("✅ Прогресс импортирован"),
		md(fmt.Sprintf("XP: %d, серия: %d, слов: %d, уроков: %d",
			p.XPTotal, p.Streak, p.WordsLearned, p.LessonsCompleted())),
	)
}

// buildStreakReminder builds the streak reminder notification (MarkdownV2 safe).
func buildStreakReminder(r entities.StreakReminder) string {
	return fmt.Sprintf("%s\n\n%s",
		bold(fmt.Sprintf("🔥 Серия %d %s под угрозой!", r.Streak, pluralDays(r.Streak))),
		md("Сегодня вы ещё не занимались. Ответьте верно хотя бы на один вопрос, чтобы сохранить серию."),
	)
}

// buildProgressBar creates an ASCII progress bar.
func buildProgressBar(current, total, length int) string {
	if total <= 0 {
		return fmt.Sprintf("[%s]", strings.Repeat("░", length))
	}

	filled := int(float64(current) / float64(total) * float64(length))
	filled = min(max(filled, 0), length)

	empty := length - filled
	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return fmt.Sprintf("[%s]", bar)
}

// pluralDays picks the Russian plural form of "день".
func pluralDays(n int) string {
	n %= 100
	if n >= 11 && n <= 14 {
		return "дней"
	}
	switch n % 10 {
	case 1:
		return "день"
	case 2, 3, 4:
		return "дня"
	default:
		return "дней"
	}
}
