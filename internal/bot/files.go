package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/minya/videodlbot/internal/domain"
)

const deleteCallbackPrefix = "del:"

// maxListedFiles caps the /files listing to keep the message under
// Telegram's length limit.
const maxListedFiles = 20

// handleFiles lists stored overflow objects, newest first, with a delete
// button per file.
func (b *Bot) handleFiles(ctx context.Context, update tgbotapi.Update) {
	if b.store == nil {
		b.reply(update, "Cloud storage is not configured.")
		return
	}

	status, err := b.sendStatus(update, "Loading files from storage...")
	if err != nil {
		b.logger.Error("Failed to create status message", zap.Error(err))
		return
	}

	files, err := b.listSorted(ctx)
	if err != nil {
		b.logger.Error("Failed to list stored files", zap.Error(err))
		if editErr := status.EditStatus("An error occurred while listing files."); editErr != nil {
			b.logger.Warn("Failed to edit status message", zap.Error(editErr))
		}
		return
	}

	if len(files) == 0 {
		if err := status.EditStatus("No files found in storage."); err != nil {
			b.logger.Warn("Failed to edit status message", zap.Error(err))
		}
		return
	}

	text, keyboard := buildFileListing(files)
	edit := tgbotapi.NewEditMessageText(status.chatID, status.messageID, text)
	edit.ReplyMarkup = &keyboard
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("Failed to edit status message", zap.Error(err))
	}
}

// handleDeleteCallback deletes the file selected via inline button. The
// callback carries a list index, so the listing is re-fetched and sorted
// the same way before resolving it.
func (b *Bot) handleDeleteCallback(ctx context.Context, update tgbotapi.Update) {
	query := update.CallbackQuery

	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback", zap.Error(err))
	}

	idx, err := strconv.Atoi(strings.TrimPrefix(query.Data, deleteCallbackPrefix))
	if err != nil {
		b.editCallbackMessage(query, "Invalid file selection.")
		return
	}

	files, err := b.listSorted(ctx)
	if err != nil {
		b.logger.Error("Failed to list stored files", zap.Error(err))
		b.editCallbackMessage(query, "An error occurred while listing files.")
		return
	}

	if idx < 0 || idx >= len(files) {
		b.editCallbackMessage(query, "File no longer exists or list has changed. Use /files to refresh.")
		return
	}

	file := files[idx]
	if err := b.store.Delete(ctx, file.Name); err != nil {
		b.logger.Error("Failed to delete stored file",
			zap.String("name", file.Name), zap.Error(err))
		b.editCallbackMessage(query, fmt.Sprintf("Failed to delete file: %s", file.Title))
		return
	}

	b.editCallbackMessage(query, fmt.Sprintf(
		"File deleted successfully: %s\n\nUse /files to see the updated list.", file.Title))
}

func (b *Bot) listSorted(ctx context.Context) ([]domain.StoredObject, error) {
	files, err := b.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Created.After(files[j].Created)
	})
	return files, nil
}

// buildFileListing renders the listing text and its delete keyboard.
func buildFileListing(files []domain.StoredObject) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("Files in storage:\n")

	shown := files
	if len(shown) > maxListedFiles {
		shown = shown[:maxListedFiles]
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, file := range shown {
		fmt.Fprintf(&sb, "\n%d. %s\n   Size: %.2f MB | Created: %s\n   %s\n",
			i+1, file.Title,
			float64(file.Size)/float64(domain.BytesPerMiB),
			file.Created.Format("2006-01-02 15:04"),
			file.PublicURL)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("Delete #%d", i+1),
				fmt.Sprintf("%s%d", deleteCallbackPrefix, i)),
		))
	}

	if len(files) > maxListedFiles {
		fmt.Fprintf(&sb, "\n(Showing %d of %d files)", maxListedFiles, len(files))
	}

	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) editCallbackMessage(query *tgbotapi.CallbackQuery, text string) {
	// Telegram omits the message on callbacks older than 48h.
	if query.Message == nil {
		b.logger.Warn("Callback carries no message to edit", zap.String("data", query.Data))
		return
	}
	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("Failed to edit callback message", zap.Error(err))
	}
}
