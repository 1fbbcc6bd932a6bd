// Package notifier delivers finished persona reports.
package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ibeckermayer/redditpersona/internal/config"
	"github.com/ibeckermayer/redditpersona/internal/notifier/providers"
	"github.com/ibeckermayer/redditpersona/internal/report"
	"github.com/ibeckermayer/redditpersona/internal/types"
)

// Message is a finished report ready for delivery
type Message = providers.Message

// Sender defines the interface for report delivery
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// NewFromConfig creates a sender based on configuration. It returns nil when
// notifications are disabled.
func NewFromConfig(cfg config.NotifyConfig) (Sender, error) {
	switch cfg.Provider {
	case config.NotifyNone, "":
		return nil, nil
	case config.NotifySMTP:
		return providers.NewSMTPSender(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPass,
			cfg.FromAddr,
			cfg.ToAddr,
		), nil
	case config.NotifyTelegram:
		api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to telegram: %w", err)
		}
		return providers.NewTelegramSender(api, cfg.TelegramChatID), nil
	default:
		return nil, fmt.Errorf("unknown notification provider: %s", cfg.Provider)
	}
}

// NewMessage builds the delivery message for a rendered report.
func NewMessage(rep types.Report, html string) Message {
	return Message{
		Subject:   fmt.Sprintf("Reddit persona: u/%s (%s)", rep.Username, rep.Tone),
		HTMLBody:  html,
		PlainBody: report.PlainText(rep),
		FileName:  fmt.Sprintf("persona_%s.html", rep.Username),
	}
}
