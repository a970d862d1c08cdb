package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"BreakoutSentinel/internal/model"
)

// SMSSender sends text messages through the Twilio Messages API.
type SMSSender struct {
	client     *resty.Client
	accountSID string
	from       string
}

// NewSMSSender creates a sender with optional proxy support.
func NewSMSSender(baseURL, accountSID, authToken, from, proxyURL string) *SMSSender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(accountSID, authToken).
		SetTimeout(30 * time.Second)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &SMSSender{client: client, accountSID: accountSID, from: from}
}

func (s *SMSSender) Channel() model.Channel { return model.ChannelSMS }

func (s *SMSSender) Send(ctx context.Context, msg Message, recipients []string) []model.RecipientFailure {
	return eachRecipient(recipients, func(to string) error {
		return s.sendOne(ctx, msg.Body, to)
	})
}

func (s *SMSSender) sendOne(ctx context.Context, body, to string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("sid", s.accountSID).
		SetFormData(map[string]string{
			"To":   to,
			"From": s.from,
			"Body": body,
		}).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		return fmt.Errorf("%w: sms: %v", model.ErrTransport, err)
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
