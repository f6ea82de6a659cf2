package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/minya/videodlbot/internal/domain"
)

func (b *Bot) handleStart(ctx context.Context, update tgbotapi.Update) {
	user := updateUser(update)
	b.reply(update, fmt.Sprintf(
		"Hi %s!\n\n"+
			"I can download videos from YouTube, Instagram, and Twitter/X.\n"+
			"Just send me a valid video URL, and I'll download it for you.",
		user.FirstName))
}

func (b *Bot) handleHelp(ctx context.Context, update tgbotapi.Update) {
	b.reply(update,
		"How to use this bot:\n\n"+
			"1. Send a video URL from YouTube, Instagram, or Twitter/X.\n"+
			"2. Wait for the bot to download and send the video.\n\n"+
			"Commands:\n"+
			"/start - Show welcome message\n"+
			"/help - Show this help message\n"+
			"/files - List files in cloud storage (with delete buttons)\n\n"+
			"Note: Videos larger than 50MB will be uploaded to cloud storage and a download link will be provided.")
}

// handleURL is the main path: one message with a URL becomes one download
// session. The session owns everything after the status message exists.
func (b *Bot) handleURL(ctx context.Context, update tgbotapi.Update) {
	url := strings.TrimSpace(update.Message.Text)

	if !domain.IsValidURL(url) {
		b.logger.Warn("Invalid URL received", zap.String("url", url))
		b.reply(update, "Please provide a valid URL.")
		return
	}

	status, err := b.sendStatus(update, "Downloading video, please wait...")
	if err != nil {
		b.logger.Error("Failed to create status message", zap.Error(err))
		return
	}

	if err := b.session.Run(ctx, url, status); err != nil {
		b.logger.Error("Download session failed",
			zap.String("url", url),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err))
	}
}

// sendStatus creates the editable status message a session reports
// through.
func (b *Bot) sendStatus(update tgbotapi.Update, text string) (*statusMessage, error) {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
	msg.ReplyToMessageID = update.Message.MessageID
	sent, err := b.api.Send(msg)
	if err != nil {
		return nil, err
	}
	return &statusMessage{
		api:       b.api,
		chatID:    update.Message.Chat.ID,
		messageID: sent.MessageID,
		replyToID: update.Message.MessageID,
		logger:    b.logger,
	}, nil
}
