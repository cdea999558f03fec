package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
	"github.com/aliskhannn/spanish-trainer/internal/export"
)

var errFileTooLarge = errors.New("file too large")

// handleStart greets the user and links the Mini App.
func (h *Handler) handleStart() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		msg := newMessage(chatID, welcomeMessage())
		msg.ReplyMarkup = buildStartKeyboard(h.webAppURL)
		return h.send(msg)
	}
}

// handleHelp explains the commands and the sync flow.
func (h *Handler) handleHelp() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		return h.send(newPlainMessage(chatID, msgHelp))
	}
}

// handleStats displays the user's progress summary.
func (h *Handler) handleStats(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		ledger, release := h.ledgers.Open(ctx, userID)
		defer release()

		msg := newMessage(chatID, formatStats(ledger.Summary(ctx)))
		msg.ReplyMarkup = buildStatsKeyboard()
		return h.send(msg)
	}
}

// handleExport sends the export payload as a JSON document.
func (h *Handler) handleExport(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		ledger, release := h.ledgers.Open(ctx, userID)
		payload := ledger.Export(ctx)
		release()

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal export: %w", err)
		}

		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: exportFileName, Bytes: data})
		doc.Caption = "Экспорт прогресса. Чтобы восстановить его, пришлите этот файл боту."
		return h.send(doc)
	}
}

// handleVocab sends the vocabulary as an XLSX workbook.
func (h *Handler) handleVocab(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		ledger, release := h.ledgers.Open(ctx, userID)
		progress := ledger.Progress(ctx)
		release()

		if len(progress.Vocab) == 0 {
			return h.send(newPlainMessage(chatID, msgNothingToExport))
		}

		var buf bytes.Buffer
		if err := export.WriteVocabulary(&buf, progress); err != nil {
			return fmt.Errorf("build vocabulary workbook: %w", err)
		}

		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: vocabFileName, Bytes: buf.Bytes()})
		doc.Caption = fmt.Sprintf("📚 Слов в словаре: %d", progress.WordsLearned)
		return h.send(doc)
	}
}

// handleReset asks for confirmation before wiping progress.
func (h *Handler) handleReset() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		msg := newPlainMessage(chatID, msgResetConfirm)
		msg.ReplyMarkup = buildResetConfirmKeyboard()
		return h.send(msg)
	}
}

// handleSyncCode imports a sync code pasted from the Mini App.
func (h *Handler) handleSyncCode(userID int64, text string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		return h.importProgress(ctx, chatID, userID, []byte(text))
	}
}

// handleDocument imports an uploaded export file.
func (h *Handler) handleDocument(userID int64, doc *tgbotapi.Document) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if !strings.HasSuffix(strings.ToLower(doc.FileName), ".json") {
			return h.send(newPlainMessage(chatID, msgNotJSONFile))
		}
		if doc.FileSize > maxImportFileSize {
			return h.send(newPlainMessage(chatID, msgFileTooLarge))
		}

		data, err := h.downloadFile(ctx, doc.FileID)
		if errors.Is(err, errFileTooLarge) {
			return h.send(newPlainMessage(chatID, msgFileTooLarge))
		}
		if err != nil {
			return err
		}

		return h.importProgress(ctx, chatID, userID, data)
	}
}

func (h *Handler) importProgress(ctx context.Context, chatID, userID int64, data []byte) error {
	ledger, release := h.ledgers.Open(ctx, userID)
	defer release()

	if err := ledger.Import(ctx, data); err != nil {
		if errors.Is(err, entities.ErrInvalidImport) {
			h.logger.Debug("rejected import", zap.Int64("user_id", userID), zap.Error(err))
			return h.send(newPlainMessage(chatID, msgImportFailed))
		}
		return fmt.Errorf("import progress: %w", err)
	}

	return h.send(newMessage(chatID, formatImportResult(ledger.Progress(ctx))))
}

func (h *Handler) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := h.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImportFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxImportFileSize {
		return nil, errFileTooLarge
	}

	return data, nil
}

// looksLikeSyncCode reports whether text could be a JSON sync code.
func looksLikeSyncCode(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}")
}
