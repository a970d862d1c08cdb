package notifier

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"BreakoutSentinel/internal/model"
)

// Dialer opens an authenticated SMTP session. *gomail.Dialer satisfies it.
type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

// EmailSender sends plain-text mail, one copy per recipient over a single
// SMTP connection.
type EmailSender struct {
	dialer Dialer
	from   string
}

// NewEmailSender creates a sender for the given mail relay.
func NewEmailSender(host string, port int, username, password, from string) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (e *EmailSender) Channel() model.Channel { return model.ChannelEmail }

func (e *EmailSender) Send(ctx context.Context, msg Message, recipients []string) []model.RecipientFailure {
	// gomail has no context support; a done ctx only prevents the dial.
	if err := ctx.Err(); err != nil {
		return failAll(recipients, err)
	}
	conn, err := e.dialer.Dial()
	if err != nil {
		return failAll(recipients, fmt.Errorf("%w: smtp dial: %v", model.ErrTransport, err))
	}
	defer conn.Close()

	return eachRecipient(recipients, func(to string) error {
		m := gomail.NewMessage()
		m.SetHeader("From", e.from)
		m.SetHeader("To", to)
		m.SetHeader("Subject", msg.Subject)
		m.SetBody("text/plain", msg.Body)
		return gomail.Send(conn, m)
	})
}

func failAll(recipients []string, err error) []model.RecipientFailure {
	failures := make([]model.RecipientFailure, len(recipients))
	for i, to := range recipients {
		failures[i] = model.RecipientFailure{Recipient: to, Err: err}
	}
	return failures
}
