package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Classification is the outcome of comparing a price against an opening range.
type Classification int

const (
	NoBreakout Classification = iota
	BreakoutUp
	BreakoutDown
)

func (c Classification) String() string {
	switch c {
	case BreakoutUp:
		return "BREAKOUT_UP"
	case BreakoutDown:
		return "BREAKOUT_DOWN"
	default:
		return "NONE"
	}
}

// Direction is the side on which the price left the range.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// BreakoutEvent is emitted at most once per monitored symbol.
type BreakoutEvent struct {
	Symbol        string
	Direction     Direction
	TriggerPrice  decimal.Decimal
	RangeBoundary decimal.Decimal
	Timestamp     time.Time
}

// Channel selects the notification transport.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelTelegram Channel = "telegram"
)

// ParseChannel maps a config or flag value to a Channel.
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(s); c {
	case ChannelEmail, ChannelSMS, ChannelTelegram:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown notification channel %q", ErrConfiguration, s)
	}
}
