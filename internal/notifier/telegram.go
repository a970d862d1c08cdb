package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"BreakoutSentinel/internal/model"
)

// TelegramSender sends messages via the Telegram Bot API. Recipients are chat IDs.
type TelegramSender struct {
	client   *resty.Client
	botToken string
}

// NewTelegramSender creates a sender with optional proxy support.
func NewTelegramSender(baseURL, botToken, proxyURL string) *TelegramSender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &TelegramSender{client: client, botToken: botToken}
}

func (t *TelegramSender) Channel() model.Channel { return model.ChannelTelegram }

func (t *TelegramSender) Send(ctx context.Context, msg Message, chatIDs []string) []model.RecipientFailure {
	return eachRecipient(chatIDs, func(chatID string) error {
		resp, err := t.client.R().
			SetContext(ctx).
			SetPathParam("token", t.botToken).
			SetBody(map[string]string{
				"chat_id": chatID,
				"text":    msg.Body,
			}).
			Post("/bot{token}/sendMessage")
		if err != nil {
			return fmt.Errorf("%w: telegram: %v", model.ErrTransport, err)
		}
		if resp.IsError() {
			return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode(), resp.String())
		}
		return nil
	})
}
