package telegram

import (
	"bytes"
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/oops"
)

// Sender delivers poller notifications over the Telegram Bot API.
type Sender struct {
	bot *bot.Bot
}

// NewSender creates a new sender
func NewSender(b *bot.Bot) *Sender {
	return &Sender{bot: b}
}

// SendText sends a Markdown-formatted text message.
func (s *Sender) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return oops.With("chat_id", chatID, "context", "failed to send message").Wrap(err)
	}
	return nil
}

// SendDocument uploads bytes as a generic document.
func (s *Sender) SendDocument(ctx context.Context, chatID int64, filename string, data []byte) error {
	_, err := s.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: filename,
			Data:     bytes.NewReader(data),
		},
	})
	if err != nil {
		return oops.With("chat_id", chatID, "filename", filename, "context", "failed to send document").Wrap(err)
	}
	return nil
}

// SendPhoto uploads bytes as a photo.
func (s *Sender) SendPhoto(ctx context.Context, chatID int64, filename string, data []byte) error {
	_, err := s.bot.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo: &models.InputFileUpload{
			Filename: filename,
			Data:     bytes.NewReader(data),
		},
	})
	if err != nil {
		return oops.With("chat_id", chatID, "filename", filename, "context", "failed to send photo").Wrap(err)
	}
	return nil
}
