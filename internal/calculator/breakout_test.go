package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"BreakoutSentinel/internal/model"
)

func testRange() model.OpeningRange {
	return model.OpeningRange{
		Symbol: "IBM",
		High:   decimal.RequireFromString("150.00"),
		Low:    decimal.RequireFromString("145.00"),
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		price string
		want  model.Classification
	}{
		{"inside", "147.00", model.NoBreakout},
		{"exactly high", "150.00", model.NoBreakout},
		{"exactly low", "145.00", model.NoBreakout},
		{"one cent under high", "149.99", model.NoBreakout},
		{"one cent over high", "150.01", model.BreakoutUp},
		{"well above", "151.20", model.BreakoutUp},
		{"one cent under low", "144.99", model.BreakoutDown},
		{"well below", "120", model.BreakoutDown},
	}
	r := testRange()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(decimal.RequireFromString(tt.price), r)
			if got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.price, got, tt.want)
			}
		})
	}
}

func TestClassify_DegenerateRange(t *testing.T) {
	flat := model.OpeningRange{High: decimal.NewFromInt(100), Low: decimal.NewFromInt(100)}
	if got := Classify(decimal.NewFromInt(100), flat); got != model.NoBreakout {
		t.Errorf("price equal to flat range should not break out, got %s", got)
	}
	if got := Classify(decimal.RequireFromString("100.0001"), flat); got != model.BreakoutUp {
		t.Errorf("expected BREAKOUT_UP, got %s", got)
	}
}

func TestClassify_Sweep(t *testing.T) {
	r := testRange()
	step := decimal.RequireFromString("0.25")
	for p := decimal.NewFromInt(140); p.LessThanOrEqual(decimal.NewFromInt(155)); p = p.Add(step) {
		got := Classify(p, r)
		switch {
		case p.GreaterThan(r.High) && got != model.BreakoutUp:
			t.Errorf("price %s above high: got %s", p, got)
		case p.LessThan(r.Low) && got != model.BreakoutDown:
			t.Errorf("price %s below low: got %s", p, got)
		case !p.GreaterThan(r.High) && !p.LessThan(r.Low) && got != model.NoBreakout:
			t.Errorf("price %s inside range: got %s", p, got)
		}
	}
}

func TestNewBreakoutEvent(t *testing.T) {
	r := testRange()
	at := time.Date(2024, 3, 13, 10, 5, 0, 0, time.UTC)
	sample := model.PriceSample{Symbol: "IBM", Price: decimal.RequireFromString("144.10"), ObservedAt: at}

	evt := NewBreakoutEvent(model.BreakoutDown, sample, r)
	if evt == nil {
		t.Fatal("expected event")
	}
	if evt.Direction != model.DirectionDown || !evt.RangeBoundary.Equal(r.Low) || !evt.Timestamp.Equal(at) {
		t.Errorf("unexpected event: %+v", evt)
	}
	if NewBreakoutEvent(model.NoBreakout, sample, r) != nil {
		t.Error("NoBreakout must not produce an event")
	}
}
