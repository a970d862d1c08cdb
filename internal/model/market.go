package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OHLCV represents a single intraday candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// OpeningRange is the high/low of the first bar of a market day.
type OpeningRange struct {
	Symbol   string
	Date     time.Time // midnight of the market day, exchange timezone
	Interval string
	High     decimal.Decimal
	Low      decimal.Decimal
}

// Valid reports whether the range satisfies High >= Low.
func (r OpeningRange) Valid() bool {
	return r.High.GreaterThanOrEqual(r.Low)
}

// PriceSample is one observation of the last-traded price.
type PriceSample struct {
	Symbol     string
	Price      decimal.Decimal
	ObservedAt time.Time
}
