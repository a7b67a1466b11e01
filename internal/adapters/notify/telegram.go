package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
)

// telegramSender abstracts the bot API client so the channel is
// testable without the network.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel sends fall alerts as Telegram bot messages.
type TelegramChannel struct {
	bot    telegramSender
	chatID int64
	logger logger.Logger
}

// NewTelegramChannel creates a Telegram alert channel from a bot token
// and target chat.
func NewTelegramChannel(token string, chatID int64) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramChannel{
		bot:    bot,
		chatID: chatID,
		logger: logger.Get().Named("telegram"),
	}, nil
}

// newTelegramChannelWithSender is the test seam.
func newTelegramChannelWithSender(sender telegramSender, chatID int64) *TelegramChannel {
	return &TelegramChannel{
		bot:    sender,
		chatID: chatID,
		logger: logger.Get().Named("telegram"),
	}
}

// Name identifies the channel.
func (c *TelegramChannel) Name() string { return "telegram" }

// Send delivers the alert text. The bot API client has no context
// support, so the send runs in a goroutine and the ctx deadline is
// honored by abandoning the in-flight call.
func (c *TelegramChannel) Send(ctx context.Context, event model.FallEvent) error {
	text := alertText(event)

	done := make(chan error, 1)
	go func() {
		_, err := c.bot.Send(tgbotapi.NewMessage(c.chatID, text))
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram send: %w", ctx.Err())
	}
}

// alertText formats the caregiver-facing message.
func alertText(event model.FallEvent) string {
	text := fmt.Sprintf("Fall detected for %s at %s (confidence %.2f). Event ID: %s",
		event.EntityID,
		event.DetectedAt.Format("2006-01-02 15:04:05"),
		event.Confidence,
		event.EventID,
	)
	if event.HasGPSFix {
		text += fmt.Sprintf(" GPS: %.5f, %.5f", event.Latitude, event.Longitude)
	}
	return text
}
