package reports

import (
	"strings"
	"time"
)

// DefaultRange is used when a report request does not name a range or names
// one the service does not recognise.
const DefaultRange = "7d"

var rangeDays = map[string]int{
	"1d":  1,
	"7d":  7,
	"30d": 30,
	"90d": 90,
	"1y":  365,
}

// Range is a resolved reporting window. The window is closed-closed over
// calendar days: it covers today plus the Days preceding days. Start is the
// first day's midnight UTC and End the exclusive midnight after today.
type Range struct {
	Label string
	Days  int
	Start time.Time
	End   time.Time
}

// ParseRange resolves a range label against the given reference day. Empty
// and unrecognised labels fall back to the default window.
func ParseRange(label string, now time.Time) Range {
	label = strings.ToLower(strings.TrimSpace(label))
	days, ok := rangeDays[label]
	if !ok {
		label = DefaultRange
		days = rangeDays[label]
	}

	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -(days + 1))

	return Range{Label: label, Days: days, Start: start, End: end}
}
