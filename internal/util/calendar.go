package util

import "time"

// DayKey returns the calendar day of t in the given location, formatted as
// YYYY-MM-DD. Sentiment votes are bucketed by this key so that an article's
// day is judged in exchange time, not UTC.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// ParseDay parses a YYYY-MM-DD day key into a midnight-UTC time. Bar dates
// and sentiment day keys both normalise through this so they compare equal.
func ParseDay(day string) (time.Time, error) {
	return time.Parse("2006-01-02", day)
}
