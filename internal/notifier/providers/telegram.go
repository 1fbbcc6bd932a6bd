package providers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxCaption is Telegram's limit for document captions
const maxCaption = 1024

// TelegramSender uploads the report as a document to one chat
type TelegramSender struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender creates a new sender.
func NewTelegramSender(api *tgbotapi.BotAPI, chatID int64) *TelegramSender {
	return &TelegramSender{api: api, chatID: chatID}
}

// Send uploads the HTML report with the plain summary as caption.
func (s *TelegramSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.chatID == 0 {
		return fmt.Errorf("chat id not configured")
	}

	name := m.FileName
	if name == "" {
		name = "persona.html"
	}

	doc := tgbotapi.NewDocument(s.chatID, tgbotapi.FileBytes{Name: name, Bytes: []byte(m.HTMLBody)})
	doc.Caption = caption(m)

	if _, err := s.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send telegram document: %w", err)
	}
	return nil
}

func caption(m Message) string {
	text := m.Subject
	if m.PlainBody != "" {
		text += "\n\n" + m.PlainBody
	}
	if r := []rune(text); len(r) > maxCaption {
		text = string(r[:maxCaption-1]) + "…"
	}
	return text
}
