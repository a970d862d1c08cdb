package marketday

import (
	"fmt"
	"time"

	"github.com/scmhub/calendar"
)

// Exchange pins market-day arithmetic to one venue's timezone and session hours.
type Exchange struct {
	MIC      string
	Loc      *time.Location
	Fallback bool // calendar not found, Loc is America/New_York
	open     clockTime
	close    clockTime
}

type clockTime struct{ hour, minute int }

func parseClock(s string) (clockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return clockTime{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return clockTime{hour: t.Hour(), minute: t.Minute()}, nil
}

// NewExchange resolves the timezone of mic through scmhub/calendar, falling
// back to America/New_York when the calendar is unknown.
func NewExchange(mic, openHHMM, closeHHMM string) (*Exchange, error) {
	o, err := parseClock(openHHMM)
	if err != nil {
		return nil, err
	}
	c, err := parseClock(closeHHMM)
	if err != nil {
		return nil, err
	}
	if c.hour*60+c.minute <= o.hour*60+o.minute {
		return nil, fmt.Errorf("market close %s must be after open %s", closeHHMM, openHHMM)
	}

	ex := &Exchange{MIC: mic, open: o, close: c}
	if cal := calendar.GetCalendar(mic); cal != nil && cal.Loc != nil {
		ex.Loc = cal.Loc
		return ex, nil
	}
	ex.Fallback = true
	if ex.Loc, err = time.LoadLocation("America/New_York"); err != nil {
		ex.Loc = time.UTC
	}
	return ex, nil
}

// Day truncates t to midnight of its calendar date in the exchange timezone.
func (e *Exchange) Day(t time.Time) time.Time {
	t = t.In(e.Loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.Loc)
}

// LastMarketDay resolves t to the most recent market day in the exchange timezone.
func (e *Exchange) LastMarketDay(t time.Time) time.Time {
	return LastMarketDay(e.Day(t))
}

// OpenAt returns the session open on the given day.
func (e *Exchange) OpenAt(day time.Time) time.Time {
	d := e.Day(day)
	return time.Date(d.Year(), d.Month(), d.Day(), e.open.hour, e.open.minute, 0, 0, e.Loc)
}

// CloseAt returns the session close on the given day.
func (e *Exchange) CloseAt(day time.Time) time.Time {
	d := e.Day(day)
	return time.Date(d.Year(), d.Month(), d.Day(), e.close.hour, e.close.minute, 0, 0, e.Loc)
}
