// Package dataset joins stored price bars with the daily sentiment series
// into the aligned input the simulator consumes.
package dataset

import (
	"fmt"
	"time"

	"saturn/internal/domain"
	"saturn/internal/sentiment"
	"saturn/internal/util"
)

// Merge copies bars with each bar's Sentiment set to its day's vote sum,
// zero for days without news. A nil series yields all-neutral bars. Bars
// must be strictly ordered by date; out-of-order or duplicate dates are an
// error since the simulator's equity curve depends on the ordering.
func Merge(bars []domain.Bar, series *sentiment.Series) ([]domain.Bar, error) {
	merged := make([]domain.Bar, len(bars))
	var prev time.Time
	for i, bar := range bars {
		if i > 0 && !bar.Date.After(prev) {
			return nil, fmt.Errorf("bars not strictly ordered: %s follows %s",
				util.DayKey(bar.Date, time.UTC), util.DayKey(prev, time.UTC))
		}
		prev = bar.Date

		merged[i] = bar
		if series != nil {
			merged[i].Sentiment = series.ForDate(bar.Date)
		} else {
			merged[i].Sentiment = 0
		}
	}
	return merged, nil
}

// Window trims a merged series to bars within [start, end] inclusive. A
// zero start or end leaves that side unbounded.
func Window(bars []domain.Bar, start, end time.Time) []domain.Bar {
	var out []domain.Bar
	for _, bar := range bars {
		if !start.IsZero() && bar.Date.Before(start) {
			continue
		}
		if !end.IsZero() && bar.Date.After(end) {
			continue
		}
		out = append(out, bar)
	}
	return out
}
