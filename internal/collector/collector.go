package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"BreakoutSentinel/internal/calculator"
	"BreakoutSentinel/internal/marketday"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/recorder"
)

// MockFetcher returns scripted data for development and testing. Prices are
// consumed in order; once a symbol's script is exhausted every further
// poll fails with model.ErrDataUnavailable.
type MockFetcher struct {
	mu     sync.Mutex
	Bars   map[string][]model.OHLCV
	Prices map[string][]decimal.Decimal
	Errs   map[string]error // returned for every call on that symbol
	calls  map[string]int
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Bars:   make(map[string][]model.OHLCV),
		Prices: make(map[string][]decimal.Decimal),
		Errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchIntradayBars(_ context.Context, symbol, _ string, _ time.Time) ([]model.OHLCV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errs[symbol]; err != nil {
		return nil, err
	}
	bars, ok := m.Bars[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: mock has no series for %s", model.ErrDataUnavailable, symbol)
	}
	return bars, nil
}

func (m *MockFetcher) FetchCurrentPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[symbol]++
	if err := m.Errs[symbol]; err != nil {
		return decimal.Zero, err
	}
	script := m.Prices[symbol]
	if len(script) == 0 {
		return decimal.Zero, fmt.Errorf("%w: mock price script exhausted for %s", model.ErrDataUnavailable, symbol)
	}
	m.Prices[symbol] = script[1:]
	return script[0], nil
}

// PriceCalls reports how many price polls were made for symbol.
func (m *MockFetcher) PriceCalls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// Collector turns raw feed data into opening ranges and price samples.
type Collector struct {
	Fetcher  Fetcher
	Exchange *marketday.Exchange
	Recorder recorder.Recorder
	log      *logrus.Entry
	now      func() time.Time
}

// NewCollector creates a new Collector. rec may be nil.
func NewCollector(fetcher Fetcher, ex *marketday.Exchange, rec recorder.Recorder, log *logrus.Logger) *Collector {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Collector{
		Fetcher:  fetcher,
		Exchange: ex,
		Recorder: rec,
		log:      log.WithFields(logrus.Fields{"component": "collector", "source": fetcher.Name()}),
		now:      time.Now,
	}
}

// FetchOpeningRange returns the high/low of the bar at market open on the
// most recent market day at or before asOf.
func (c *Collector) FetchOpeningRange(ctx context.Context, symbol, interval string, asOf time.Time) (*model.OpeningRange, error) {
	day := c.Exchange.LastMarketDay(asOf)

	if cached, found, err := c.Recorder.LookupRange(ctx, symbol, interval, day); err != nil {
		c.log.WithField("symbol", symbol).Warnf("range cache lookup failed: %v", err)
	} else if found {
		c.log.WithField("symbol", symbol).Debugf("opening range for %s served from cache", day.Format("2006-01-02"))
		return cached, nil
	}

	open := c.Exchange.OpenAt(day)
	bars, err := c.Fetcher.FetchIntradayBars(ctx, symbol, interval, open)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("fetch %s intraday series", interval), err)
	}
	r, err := calculator.OpeningRange(symbol, interval, bars, day, open)
	if err != nil {
		return nil, err
	}

	if err := c.Recorder.RecordRange(ctx, r); err != nil {
		c.log.WithField("symbol", symbol).Warnf("range cache write failed: %v", err)
	}
	return r, nil
}

// FetchCurrentPrice samples the last-traded price for symbol.
func (c *Collector) FetchCurrentPrice(ctx context.Context, symbol string) (model.PriceSample, error) {
	price, err := c.Fetcher.FetchCurrentPrice(ctx, symbol)
	if err != nil {
		return model.PriceSample{}, unavailable("fetch current price", err)
	}
	return model.PriceSample{Symbol: symbol, Price: price, ObservedAt: c.now()}, nil
}

// unavailable makes every feed failure match model.ErrDataUnavailable while
// keeping the original cause (such as model.ErrTransport) matchable too.
func unavailable(op string, err error) error {
	if errors.Is(err, model.ErrDataUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrDataUnavailable, err)
}
