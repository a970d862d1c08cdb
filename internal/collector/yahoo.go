package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"BreakoutSentinel/internal/model"
)

// yahooAPI is the part of finance-go the fetcher uses.
type yahooAPI interface {
	Chart(p *chart.Params) ([]*finance.ChartBar, error)
	Quote(symbol string) (*finance.Quote, error)
}

type financeGo struct{}

func (financeGo) Chart(p *chart.Params) ([]*finance.ChartBar, error) {
	iter := chart.Get(p)
	var bars []*finance.ChartBar
	for iter.Next() {
		bars = append(bars, iter.Bar())
	}
	return bars, iter.Err()
}

func (financeGo) Quote(symbol string) (*finance.Quote, error) { return quote.Get(symbol) }

// YahooFetcher implements Fetcher using Yahoo Finance through finance-go.
type YahooFetcher struct {
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	api       yahooAPI
	now       func() time.Time
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher() *YahooFetcher {
	return &YahooFetcher{
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
		},
		api: financeGo{},
		now: time.Now,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

var yahooIntervals = map[string]datetime.Interval{
	"1min":  datetime.OneMin,
	"5min":  datetime.FiveMins,
	"15min": datetime.FifteenMins,
	"30min": datetime.ThirtyMins,
	"60min": datetime.SixtyMins,
}

// FetchIntradayBars requests the bars of open's session, from open until
// a day later or now, whichever comes first.
func (f *YahooFetcher) FetchIntradayBars(ctx context.Context, symbol, interval string, open time.Time) ([]model.OHLCV, error) {
	iv, ok := yahooIntervals[interval]
	if !ok {
		return nil, fmt.Errorf("%w: yahoo has no %s series", model.ErrDataUnavailable, interval)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start, end := open, open.Add(24*time.Hour)
	if now := f.now(); now.Before(end) {
		end = now
	}
	raw, err := f.api.Chart(&chart.Params{
		Symbol:   f.yahooSymbol(symbol),
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: iv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo chart %s: %v", model.ErrTransport, symbol, err)
	}

	var bars []model.OHLCV
	for _, b := range raw {
		if b == nil || (b.High.IsZero() && b.Low.IsZero()) {
			continue // null bars
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(int64(b.Timestamp), 0),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned no %s bars for %s", model.ErrDataUnavailable, interval, symbol)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *YahooFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	q, err := f.api.Quote(f.yahooSymbol(symbol))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: yahoo quote %s: %v", model.ErrTransport, symbol, err)
	}
	if q == nil || q.RegularMarketPrice == 0 {
		return decimal.Zero, fmt.Errorf("%w: yahoo: no quote for %s", model.ErrDataUnavailable, symbol)
	}
	return decimal.NewFromFloat(q.RegularMarketPrice), nil
}
