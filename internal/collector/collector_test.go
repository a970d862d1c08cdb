package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"BreakoutSentinel/internal/logger"
	"BreakoutSentinel/internal/marketday"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/recorder"
)

// memRecorder counts cache traffic.
type memRecorder struct {
	ranges  map[string]*model.OpeningRange
	lookups int
	writes  int
}

func (m *memRecorder) key(symbol, interval string, day time.Time) string {
	return symbol + "|" + interval + "|" + day.Format("2006-01-02")
}

func (m *memRecorder) LookupRange(_ context.Context, symbol, interval string, day time.Time) (*model.OpeningRange, bool, error) {
	m.lookups++
	r, ok := m.ranges[m.key(symbol, interval, day)]
	return r, ok, nil
}

func (m *memRecorder) RecordRange(_ context.Context, r *model.OpeningRange) error {
	m.writes++
	m.ranges[m.key(r.Symbol, r.Interval, r.Date)] = r
	return nil
}

func (m *memRecorder) Close() error { return nil }

func newTestCollector(t *testing.T, f Fetcher, rec recorder.Recorder) *Collector {
	t.Helper()
	ex, err := marketday.NewExchange("xnys", "09:30", "16:00")
	if err != nil {
		t.Fatalf("NewExchange: %v", err)
	}
	return NewCollector(f, ex, rec, logger.Discard())
}

func TestCollector_FetchOpeningRange_WeekendAndCache(t *testing.T) {
	mock := NewMockFetcher()
	rec := &memRecorder{ranges: map[string]*model.OpeningRange{}}
	c := newTestCollector(t, mock, rec)

	// Friday 2024-03-15 09:30 New York.
	friOpen := time.Date(2024, 3, 15, 9, 30, 0, 0, c.Exchange.Loc)
	mock.Bars["IBM"] = []model.OHLCV{
		{Time: friOpen, High: decimal.RequireFromString("150"), Low: decimal.RequireFromString("145")},
	}

	sunday := time.Date(2024, 3, 17, 11, 0, 0, 0, c.Exchange.Loc)
	r, err := c.FetchOpeningRange(context.Background(), "IBM", "15min", sunday)
	if err != nil {
		t.Fatalf("FetchOpeningRange: %v", err)
	}
	if r.Date.Weekday() != time.Friday || !r.High.Equal(decimal.NewFromInt(150)) {
		t.Errorf("unexpected range: %+v", r)
	}
	if rec.writes != 1 {
		t.Errorf("expected range to be cached, writes=%d", rec.writes)
	}

	// Second call must be served from cache even if the feed now fails.
	mock.Errs["IBM"] = errors.New("feed down")
	if _, err := c.FetchOpeningRange(context.Background(), "IBM", "15min", sunday); err != nil {
		t.Fatalf("expected cached range, got %v", err)
	}
}

func TestCollector_FetchOpeningRange_NoOpenBar(t *testing.T) {
	mock := NewMockFetcher()
	c := newTestCollector(t, mock, &memRecorder{ranges: map[string]*model.OpeningRange{}})

	wed := time.Date(2024, 3, 13, 12, 0, 0, 0, c.Exchange.Loc)
	mock.Bars["THIN"] = []model.OHLCV{
		{Time: time.Date(2024, 3, 13, 9, 45, 0, 0, c.Exchange.Loc), High: decimal.NewFromInt(2), Low: decimal.NewFromInt(1)},
	}
	_, err := c.FetchOpeningRange(context.Background(), "THIN", "15min", wed)
	if !errors.Is(err, model.ErrNoOpenInterval) {
		t.Errorf("expected no-open-interval, got %v", err)
	}

	_, err = c.FetchOpeningRange(context.Background(), "MISSING", "15min", wed)
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("expected data unavailable, got %v", err)
	}
}

func TestCollector_FetchCurrentPrice(t *testing.T) {
	mock := NewMockFetcher()
	c := newTestCollector(t, mock, nil)
	at := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return at }
	mock.Prices["IBM"] = []decimal.Decimal{decimal.RequireFromString("147.5")}

	s, err := c.FetchCurrentPrice(context.Background(), "IBM")
	if err != nil {
		t.Fatalf("FetchCurrentPrice: %v", err)
	}
	if s.Symbol != "IBM" || !s.Price.Equal(decimal.RequireFromString("147.5")) || !s.ObservedAt.Equal(at) {
		t.Errorf("unexpected sample: %+v", s)
	}
	if _, err := c.FetchCurrentPrice(context.Background(), "IBM"); !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("exhausted script should be data unavailable, got %v", err)
	}
}

func TestCollector_TransportFailureSurfacesAsUnavailable(t *testing.T) {
	mock := NewMockFetcher()
	mock.Errs["IBM"] = fmt.Errorf("%w: dial tcp: connection refused", model.ErrTransport)
	c := newTestCollector(t, mock, nil)

	_, err := c.FetchCurrentPrice(context.Background(), "IBM")
	if !errors.Is(err, model.ErrDataUnavailable) || !errors.Is(err, model.ErrTransport) {
		t.Errorf("expected both data unavailable and transport, got %v", err)
	}
	_, err = c.FetchOpeningRange(context.Background(), "IBM", "15min", time.Now())
	if !errors.Is(err, model.ErrDataUnavailable) || !errors.Is(err, model.ErrTransport) {
		t.Errorf("expected both data unavailable and transport, got %v", err)
	}
}
