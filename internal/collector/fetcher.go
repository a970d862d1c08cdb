package collector

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"BreakoutSentinel/internal/model"
)

// Fetcher is the market-data collaborator. Implementations wrap feed-level
// absence in model.ErrDataUnavailable and network failures in model.ErrTransport.
type Fetcher interface {
	// FetchIntradayBars returns an intraday series in chronological order
	// that covers the bar stamped at open, when the feed has it.
	FetchIntradayBars(ctx context.Context, symbol, interval string, open time.Time) ([]model.OHLCV, error)
	// FetchCurrentPrice returns the last-traded price.
	FetchCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	Name() string
}
