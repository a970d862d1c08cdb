package notifier

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"BreakoutSentinel/internal/model"
)

// Message is a channel-independent alert. SMS and Telegram only use Body.
type Message struct {
	Subject string
	Body    string
}

// Sender delivers a message over one channel. It must attempt every
// recipient even after a failure, and reports the recipients that failed in
// the order they were attempted.
type Sender interface {
	Channel() model.Channel
	Send(ctx context.Context, msg Message, recipients []string) []model.RecipientFailure
}

// Dispatcher routes alerts to the sender registered for a channel.
type Dispatcher struct {
	senders map[model.Channel]Sender
	log     *logrus.Entry
}

// NewDispatcher creates a dispatcher with the given senders.
func NewDispatcher(log *logrus.Logger, senders ...Sender) *Dispatcher {
	d := &Dispatcher{
		senders: make(map[model.Channel]Sender, len(senders)),
		log:     log.WithField("component", "notifier"),
	}
	for _, s := range senders {
		d.senders[s.Channel()] = s
	}
	return d
}

// Deliver broadcasts msg to every recipient over channel. It is a
// best-effort broadcast: a nil result means every recipient succeeded,
// otherwise the error is a *model.DeliveryError naming the failures.
// Nothing is retried. Cancelling ctx fails the sends still in flight, so
// callers that must not send a partial alert pass a context that is not
// cancelled with the session.
func (d *Dispatcher) Deliver(ctx context.Context, msg Message, channel model.Channel, recipients []string) error {
	sender, ok := d.senders[channel]
	if !ok {
		return fmt.Errorf("%w: no sender configured for channel %q", model.ErrConfiguration, channel)
	}
	if len(recipients) == 0 {
		return fmt.Errorf("%w: no recipients for channel %q", model.ErrDelivery, channel)
	}

	failures := sender.Send(ctx, msg, recipients)
	for _, f := range failures {
		d.log.WithFields(logrus.Fields{"channel": channel, "recipient": f.Recipient}).
			Errorf("send failed: %v", f.Err)
	}
	if len(failures) > 0 {
		return &model.DeliveryError{Channel: channel, Failures: failures}
	}
	d.log.WithField("channel", channel).Infof("alert delivered to %d recipient(s)", len(recipients))
	return nil
}

// eachRecipient runs send for every recipient and collects the failures in
// attempt order. A failure never stops the broadcast.
func eachRecipient(recipients []string, send func(to string) error) []model.RecipientFailure {
	var failures []model.RecipientFailure
	for _, to := range recipients {
		if err := send(to); err != nil {
			failures = append(failures, model.RecipientFailure{Recipient: to, Err: err})
		}
	}
	return failures
}
