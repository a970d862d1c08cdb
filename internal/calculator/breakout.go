package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"BreakoutSentinel/internal/model"
)

// Classify compares price against the opening range. Both boundaries are
// inside the range: only a strictly higher or lower price is a breakout.
func Classify(price decimal.Decimal, r model.OpeningRange) model.Classification {
	switch {
	case price.GreaterThan(r.High):
		return model.BreakoutUp
	case price.LessThan(r.Low):
		return model.BreakoutDown
	default:
		return model.NoBreakout
	}
}

// NewBreakoutEvent builds the event for a decisive classification. It returns
// nil for NoBreakout.
func NewBreakoutEvent(c model.Classification, sample model.PriceSample, r model.OpeningRange) *model.BreakoutEvent {
	evt := &model.BreakoutEvent{
		Symbol:       r.Symbol,
		TriggerPrice: sample.Price,
		Timestamp:    sample.ObservedAt,
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	switch c {
	case model.BreakoutUp:
		evt.Direction = model.DirectionUp
		evt.RangeBoundary = r.High
	case model.BreakoutDown:
		evt.Direction = model.DirectionDown
		evt.RangeBoundary = r.Low
	default:
		return nil
	}
	return evt
}
