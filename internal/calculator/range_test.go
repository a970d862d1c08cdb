package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"BreakoutSentinel/internal/model"
)

func bar(t time.Time, high, low string) model.OHLCV {
	return model.OHLCV{Time: t, High: decimal.RequireFromString(high), Low: decimal.RequireFromString(low)}
}

func TestOpeningRange_UsesOnlyOpeningBar(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	day := time.Date(2024, 3, 13, 0, 0, 0, 0, ny)
	open := time.Date(2024, 3, 13, 9, 30, 0, 0, ny)
	bars := []model.OHLCV{
		bar(open.Add(-15*time.Minute), "190", "100"), // pre-market
		bar(open, "150.00", "145.00"),
		bar(open.Add(15*time.Minute), "155", "140"),
	}

	r, err := OpeningRange("IBM", "15min", bars, day, open.UTC())
	if err != nil {
		t.Fatalf("OpeningRange: %v", err)
	}
	if !r.High.Equal(decimal.NewFromInt(150)) || !r.Low.Equal(decimal.NewFromInt(145)) {
		t.Errorf("expected 150/145, got %s/%s", r.High, r.Low)
	}
	if r.Symbol != "IBM" || r.Interval != "15min" || !r.Date.Equal(day) {
		t.Errorf("unexpected metadata: %+v", r)
	}
}

func TestOpeningRange_Errors(t *testing.T) {
	open := time.Date(2024, 3, 13, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		bars    []model.OHLCV
		wantErr error
	}{
		{"empty series", nil, model.ErrDataUnavailable},
		{"no opening bar", []model.OHLCV{bar(open.Add(time.Minute*15), "1", "1")}, model.ErrNoOpenInterval},
		{"inverted bar", []model.OHLCV{bar(open, "1", "2")}, model.ErrDataUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpeningRange("IBM", "15min", tt.bars, open, open)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNoOpenIntervalIsDataUnavailable(t *testing.T) {
	if !errors.Is(model.ErrNoOpenInterval, model.ErrDataUnavailable) {
		t.Fatal("ErrNoOpenInterval must wrap ErrDataUnavailable")
	}
}
