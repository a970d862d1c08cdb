package notifier

import (
	"errors"
	"fmt"
	"strings"

	"BreakoutSentinel/internal/model"
)

// FormatBreakoutAlert formats a breakout event into an alert message.
func FormatBreakoutAlert(evt *model.BreakoutEvent, r *model.OpeningRange, subject string) Message {
	verb, boundary := "above", "high"
	if evt.Direction == model.DirectionDown {
		verb, boundary = "below", "low"
	}
	if subject == "" {
		subject = fmt.Sprintf("Opening range breakout: %s", evt.Symbol)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s broke %s its opening range %s of %s at %s.\n",
		evt.Symbol, verb, boundary, evt.RangeBoundary.StringFixed(2), evt.TriggerPrice.StringFixed(2)))
	if r != nil {
		b.WriteString(fmt.Sprintf("Opening range (%s, %s bar): high %s / low %s\n",
			r.Date.Format("2006-01-02"), r.Interval, r.High.StringFixed(2), r.Low.StringFixed(2)))
	}
	b.WriteString(fmt.Sprintf("Observed at %s", evt.Timestamp.Format("2006-01-02 15:04:05 MST")))

	return Message{Subject: subject, Body: b.String()}
}

// FormatRange formats an opening range for display.
func FormatRange(r *model.OpeningRange) string {
	return fmt.Sprintf("%s opening range %s (%s): high %s, low %s",
		r.Symbol, r.Date.Format("2006-01-02"), r.Interval, r.High.StringFixed(2), r.Low.StringFixed(2))
}

// FormatSummary renders the final status of every symbol, one line each.
func FormatSummary(sessions []model.MonitorSession) string {
	var b strings.Builder
	b.WriteString("Session summary\n")
	b.WriteString(fmt.Sprintf("%-8s %-12s %-19s %6s  %s\n", "SYMBOL", "STATUS", "RANGE", "POLLS", "DETAIL"))
	for _, s := range sessions {
		rng := "-"
		if s.Range != nil {
			rng = fmt.Sprintf("%s-%s", s.Range.Low.StringFixed(2), s.Range.High.StringFixed(2))
		}
		b.WriteString(fmt.Sprintf("%-8s %-12s %-19s %6d  %s\n", s.Symbol, s.Status, rng, s.Polls, summaryDetail(s)))
	}
	return b.String()
}

func summaryDetail(s model.MonitorSession) string {
	var parts []string
	if s.Event != nil {
		parts = append(parts, fmt.Sprintf("breakout %s at %s", strings.ToLower(string(s.Event.Direction)), s.Event.TriggerPrice.StringFixed(2)))
	}
	if s.Err != nil {
		var de *model.DeliveryError
		if errors.As(s.Err, &de) {
			parts = append(parts, "alert failed for "+strings.Join(de.FailedRecipients(), ", "))
		} else {
			parts = append(parts, s.Err.Error())
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "; ")
}
