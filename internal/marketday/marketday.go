package marketday

import (
	"time"
)

// LastMarketDay returns the most recent weekday on or before date.
// Saturday rolls back one day, Sunday two. Holidays are not modelled.
func LastMarketDay(date time.Time) time.Time {
	switch date.Weekday() {
	case time.Saturday:
		return date.AddDate(0, 0, -1)
	case time.Sunday:
		return date.AddDate(0, 0, -2)
	default:
		return date
	}
}

// IsMarketDay reports whether date falls on a weekday.
func IsMarketDay(date time.Time) bool {
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
