package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// statusMessage implements app.Messenger on top of one editable Telegram
// message plus replies to the originating message.
type statusMessage struct {
	api       *tgbotapi.BotAPI
	chatID    int64
	messageID int
	replyToID int
	logger    *zap.Logger
}

// EditStatus replaces the status message text in place.
func (s *statusMessage) EditStatus(text string) error {
	edit := tgbotapi.NewEditMessageText(s.chatID, s.messageID, text)
	_, err := s.api.Send(edit)
	return err
}

// SendVideo replies with the artifact inline. Telegram derives dimensions
// itself, so width and height are accepted for interface compatibility but
// not forwarded.
func (s *statusMessage) SendVideo(path, caption string, width, height int) error {
	video := tgbotapi.NewVideo(s.chatID, tgbotapi.FilePath(path))
	video.Caption = caption
	video.SupportsStreaming = true
	video.ReplyToMessageID = s.replyToID
	_, err := s.api.Send(video)
	return err
}

// SendText replies with a plain text message.
func (s *statusMessage) SendText(text string) error {
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ReplyToMessageID = s.replyToID
	_, err := s.api.Send(msg)
	return err
}

// DeleteStatus removes the status message.
func (s *statusMessage) DeleteStatus() error {
	del := tgbotapi.NewDeleteMessage(s.chatID, s.messageID)
	_, err := s.api.Request(del)
	return err
}
