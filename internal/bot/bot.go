package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/minya/videodlbot/internal/app"
	"github.com/minya/videodlbot/internal/domain"
)

// handlerFunc processes one update.
type handlerFunc func(ctx context.Context, update tgbotapi.Update)

// middleware wraps a handler with cross-cutting behavior.
type middleware func(handlerFunc) handlerFunc

// Bot is the Telegram front end. It routes updates to handlers behind a
// uniform middleware chain and runs each handler on its own goroutine so
// a long download never blocks the update loop.
type Bot struct {
	api     *tgbotapi.BotAPI
	session *app.Session
	store   domain.ObjectStore
	allowed map[string]bool
	chain   []middleware
	logger  *zap.Logger
}

// New creates the bot transport. store may be nil when overflow storage is
// not configured.
func New(cfg *domain.TelegramConfig, session *app.Session, store domain.ObjectStore, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	api.Debug = cfg.Debug

	allowed := make(map[string]bool, len(cfg.AllowedUsers))
	for _, id := range cfg.AllowedUsers {
		if id = strings.TrimSpace(id); id != "" {
			allowed[id] = true
		}
	}

	b := &Bot{
		api:     api,
		session: session,
		store:   store,
		allowed: allowed,
		logger:  logger,
	}
	b.chain = []middleware{b.recoverPanics, b.authorize}
	return b, nil
}

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Bot started",
		zap.String("username", b.api.Self.UserName),
		zap.Int("allowed_users", len(b.allowed)))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch routes an update and runs its handler, wrapped in the
// middleware chain, on a fresh goroutine.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	handler := b.route(update)
	if handler == nil {
		return
	}
	for i := len(b.chain) - 1; i >= 0; i-- {
		handler = b.chain[i](handler)
	}
	go handler(ctx, update)
}

// route selects the handler for an update. Unknown updates are ignored.
func (b *Bot) route(update tgbotapi.Update) handlerFunc {
	if update.CallbackQuery != nil {
		if strings.HasPrefix(update.CallbackQuery.Data, deleteCallbackPrefix) {
			return b.handleDeleteCallback
		}
		return nil
	}

	if update.Message == nil || update.Message.Text == "" {
		return nil
	}

	if update.Message.IsCommand() {
		switch update.Message.Command() {
		case "start":
			return b.handleStart
		case "help":
			return b.handleHelp
		case "files":
			return b.handleFiles
		}
		return nil
	}

	return b.handleURL
}

// updateUser returns the acting user regardless of update type.
func updateUser(update tgbotapi.Update) *tgbotapi.User {
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From
	}
	if update.Message != nil {
		return update.Message.From
	}
	return nil
}

func userID(u *tgbotapi.User) string {
	return strconv.FormatInt(u.ID, 10)
}

// reply sends a plain text reply to the update's chat.
func (b *Bot) reply(update tgbotapi.Update, text string) {
	if update.Message == nil {
		return
	}
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
	msg.ReplyToMessageID = update.Message.MessageID
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Failed to send reply", zap.Error(err))
	}
}
