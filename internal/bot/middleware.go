package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// authorize admits only configured user IDs. Everything else is answered
// and logged; the handler never runs.
func (b *Bot) authorize(next handlerFunc) handlerFunc {
	return func(ctx context.Context, update tgbotapi.Update) {
		user := updateUser(update)
		if user == nil {
			return
		}

		if !b.allowed[userID(user)] {
			b.logger.Warn("Unauthorized access attempt",
				zap.Int64("user_id", user.ID),
				zap.String("username", user.UserName))
			if update.CallbackQuery != nil {
				callback := tgbotapi.NewCallbackWithAlert(update.CallbackQuery.ID, "You are not authorized.")
				if _, err := b.api.Request(callback); err != nil {
					b.logger.Warn("Failed to answer callback", zap.Error(err))
				}
			} else {
				b.reply(update, "You are not authorized to use this bot.")
			}
			return
		}

		b.logger.Info("User action",
			zap.Int64("user_id", user.ID),
			zap.String("username", user.UserName))
		next(ctx, update)
	}
}

// recoverPanics keeps a panicking handler from taking down the update
// loop.
func (b *Bot) recoverPanics(next handlerFunc) handlerFunc {
	return func(ctx context.Context, update tgbotapi.Update) {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Handler panicked", zap.Any("panic", r))
			}
		}()
		next(ctx, update)
	}
}
