package calculator

import (
	"fmt"
	"time"

	"BreakoutSentinel/internal/model"
)

// FindOpeningBar returns the bar stamped exactly at open. Bars are compared
// by instant, so their timezone does not need to match open's.
func FindOpeningBar(bars []model.OHLCV, open time.Time) (model.OHLCV, error) {
	if len(bars) == 0 {
		return model.OHLCV{}, fmt.Errorf("%w: empty intraday series", model.ErrDataUnavailable)
	}
	for _, b := range bars {
		if b.Time.Equal(open) {
			return b, nil
		}
	}
	return model.OHLCV{}, fmt.Errorf("%w (%s)", model.ErrNoOpenInterval, open.Format("2006-01-02 15:04:05"))
}

// OpeningRange builds the range from the single bar at market open. Later
// bars of the same day are ignored.
func OpeningRange(symbol, interval string, bars []model.OHLCV, day, open time.Time) (*model.OpeningRange, error) {
	bar, err := FindOpeningBar(bars, open)
	if err != nil {
		return nil, err
	}
	r := &model.OpeningRange{
		Symbol:   symbol,
		Date:     day,
		Interval: interval,
		High:     bar.High,
		Low:      bar.Low,
	}
	if !r.Valid() {
		return nil, fmt.Errorf("%w: opening bar high %s below low %s", model.ErrDataUnavailable, r.High, r.Low)
	}
	return r, nil
}
