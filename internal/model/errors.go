package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataUnavailable marks data the market feed does not have (unknown
	// symbol, missing series, rate-limit notice).
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrNoOpenInterval means the series exists but has no bar at market open.
	ErrNoOpenInterval = fmt.Errorf("%w: no bar at market open", ErrDataUnavailable)
	// ErrTransport marks network or API-level failures reaching a collaborator.
	ErrTransport = errors.New("transport failure")
	// ErrDelivery marks a notification that did not reach every recipient.
	ErrDelivery = errors.New("delivery failure")
	// ErrConfiguration is fatal and aborts startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrCancelled marks a monitor stopped by its context.
	ErrCancelled = errors.New("monitoring cancelled")
)

// RecipientFailure is one recipient a notification could not be sent to.
type RecipientFailure struct {
	Recipient string
	Err       error
}

// DeliveryError reports which recipients failed during a broadcast.
type DeliveryError struct {
	Channel  Channel
	Failures []RecipientFailure
}

func (e *DeliveryError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Recipient, f.Err))
	}
	return fmt.Sprintf("%s via %s failed for %d recipient(s): %s",
		ErrDelivery, e.Channel, len(e.Failures), strings.Join(parts, "; "))
}

func (e *DeliveryError) Is(target error) bool {
	return target == ErrDelivery
}

// FailedRecipients lists the recipients in the order they were attempted.
func (e *DeliveryError) FailedRecipients() []string {
	out := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Recipient
	}
	return out
}
