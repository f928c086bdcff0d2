// Package sentiment turns news articles into a daily polarity signal: each
// article gets a +1, -1, or 0 vote from a language model, votes are summed
// per calendar day, and the resulting sparse series is looked up by bar date
// with absent days reading as zero.
package sentiment

import (
	"sort"
	"time"

	"saturn/internal/util"
)

// Series is a sparse mapping from day key (YYYY-MM-DD) to the summed
// polarity votes of that day's articles. Days with no entry are neutral,
// not missing.
type Series struct {
	votes map[string]int
}

// NewSeries creates an empty Series.
func NewSeries() *Series {
	return &Series{votes: make(map[string]int)}
}

// Add accumulates a vote into the given day's sum.
func (s *Series) Add(day string, vote int) {
	s.votes[day] += vote
}

// Set overwrites the given day's sum, replacing any accumulated value.
func (s *Series) Set(day string, sum int) {
	s.votes[day] = sum
}

// Get returns the vote sum for a day key, zero when the day has no entry.
func (s *Series) Get(day string) int {
	return s.votes[day]
}

// ForDate returns the vote sum for the calendar day of t in UTC. Bar dates
// are midnight UTC, so this is the lookup the merge step uses.
func (s *Series) ForDate(t time.Time) int {
	return s.votes[util.DayKey(t, time.UTC)]
}

// Days returns the day keys that carry an entry, sorted ascending.
func (s *Series) Days() []string {
	days := make([]string, 0, len(s.votes))
	for d := range s.votes {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// Len returns the number of days with an entry.
func (s *Series) Len() int { return len(s.votes) }
