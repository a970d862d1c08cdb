package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"BreakoutSentinel/internal/model"
)

type fakeYahoo struct {
	bars     []*finance.ChartBar
	chartErr error
	quote    *finance.Quote
	quoteErr error

	params  *chart.Params
	symbols []string
}

func (f *fakeYahoo) Chart(p *chart.Params) ([]*finance.ChartBar, error) {
	f.params = p
	return f.bars, f.chartErr
}

func (f *fakeYahoo) Quote(symbol string) (*finance.Quote, error) {
	f.symbols = append(f.symbols, symbol)
	return f.quote, f.quoteErr
}

func newFakeYahoo(api *fakeYahoo, now time.Time) *YahooFetcher {
	f := NewYahooFetcher()
	f.api = api
	f.now = func() time.Time { return now }
	return f
}

func TestYahoo_IntradayBarsSkipsNullBars(t *testing.T) {
	open := time.Date(2024, 3, 13, 13, 30, 0, 0, time.UTC) // 09:30 New York
	api := &fakeYahoo{bars: []*finance.ChartBar{
		{Timestamp: int(open.Add(15 * time.Minute).Unix()), High: decimal.NewFromInt(149), Low: decimal.NewFromInt(147)},
		{Timestamp: int(open.Add(30 * time.Minute).Unix())}, // null bar
		nil,
		{Timestamp: int(open.Unix()), High: decimal.NewFromInt(150), Low: decimal.NewFromInt(145), Volume: 9000},
	}}
	f := newFakeYahoo(api, open.Add(2*time.Hour))

	bars, err := f.FetchIntradayBars(context.Background(), "IBM", "15min", open)
	if err != nil {
		t.Fatalf("FetchIntradayBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars after dropping null bars, got %d", len(bars))
	}
	if !bars[0].Time.Equal(open) || !bars[0].High.Equal(decimal.NewFromInt(150)) || bars[0].Volume != 9000 {
		t.Errorf("unexpected first bar: %+v", bars[0])
	}
	if api.params.Interval != datetime.FifteenMins || api.params.Symbol != "IBM" {
		t.Errorf("unexpected chart params: %+v", api.params)
	}
	if api.params.Start == nil || api.params.End == nil {
		t.Error("chart window not set")
	}
}

func TestYahoo_IntradayErrors(t *testing.T) {
	open := time.Date(2024, 3, 13, 13, 30, 0, 0, time.UTC)
	tests := []struct {
		name     string
		api      *fakeYahoo
		interval string
		wantErr  error
	}{
		{"unsupported interval", &fakeYahoo{}, "2min", model.ErrDataUnavailable},
		{"only null bars", &fakeYahoo{bars: []*finance.ChartBar{{Timestamp: int(open.Unix())}}}, "15min", model.ErrDataUnavailable},
		{"chart failure", &fakeYahoo{chartErr: errors.New("remote error")}, "15min", model.ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newFakeYahoo(tt.api, open.Add(time.Hour)).FetchIntradayBars(context.Background(), "IBM", tt.interval, open)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestYahoo_CurrentPrice(t *testing.T) {
	tests := []struct {
		name    string
		api     *fakeYahoo
		want    string
		wantErr error
	}{
		{"price", &fakeYahoo{quote: &finance.Quote{RegularMarketPrice: 151.2}}, "151.2", nil},
		{"zero price", &fakeYahoo{quote: &finance.Quote{}}, "", model.ErrDataUnavailable},
		{"no quote", &fakeYahoo{}, "", model.ErrDataUnavailable},
		{"quote failure", &fakeYahoo{quoteErr: errors.New("timeout")}, "", model.ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newFakeYahoo(tt.api, time.Now()).FetchCurrentPrice(context.Background(), "IBM")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("got %s, %v; want %s", got, err, tt.want)
			}
		})
	}
}

func TestYahoo_SymbolMap(t *testing.T) {
	api := &fakeYahoo{quote: &finance.Quote{RegularMarketPrice: 5000}}
	if _, err := newFakeYahoo(api, time.Now()).FetchCurrentPrice(context.Background(), "SPX"); err != nil {
		t.Fatalf("FetchCurrentPrice: %v", err)
	}
	if len(api.symbols) != 1 || api.symbols[0] != "^GSPC" {
		t.Errorf("expected ^GSPC, got %v", api.symbols)
	}
}
