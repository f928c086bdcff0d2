package sentiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"saturn/internal/news"
)

func TestSeriesDefaultsToZero(t *testing.T) {
	s := NewSeries()
	s.Add("2024-03-01", 2)
	s.Add("2024-03-01", -1)

	if got := s.Get("2024-03-01"); got != 1 {
		t.Errorf("Get = %d, want accumulated 1", got)
	}
	if got := s.Get("2024-03-04"); got != 0 {
		t.Errorf("Get on absent day = %d, want 0", got)
	}
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := s.ForDate(d); got != 1 {
		t.Errorf("ForDate = %d, want 1", got)
	}
}

func TestSeriesDaysSorted(t *testing.T) {
	s := NewSeries()
	s.Set("2024-03-05", 1)
	s.Set("2024-03-01", -2)
	s.Set("2024-03-03", 0)

	days := s.Days()
	want := []string{"2024-03-01", "2024-03-03", "2024-03-05"}
	if len(days) != len(want) {
		t.Fatalf("Days = %v, want %v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("Days = %v, want %v", days, want)
		}
	}
}

func TestParseLabel(t *testing.T) {
	cases := []struct {
		reply   string
		want    int
		wantErr bool
	}{
		{"Positive", 1, false},
		{"negative", -1, false},
		{"NEUTRAL", 0, false},
		{"Positive.", 1, false},
		{"  Negative! ", -1, false},
		{"The sentiment is Positive overall", 1, false},
		{"*Neutral*", 0, false},
		{"bullish", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseLabel(tc.reply)
		if tc.wantErr != (err != nil) {
			t.Errorf("ParseLabel(%q) err = %v, wantErr %v", tc.reply, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLabel(%q) = %d, want %d", tc.reply, got, tc.want)
		}
	}
}

// fakeGenerator replies from a headline-keyed script.
type fakeGenerator struct {
	replies map[string]string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for headline, reply := range f.replies {
		if len(prompt) >= len(headline) && prompt[:len(headline)] == headline {
			return reply, nil
		}
	}
	return "Neutral", nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScorerBucketsVotesByDay(t *testing.T) {
	gen := &fakeGenerator{replies: map[string]string{
		"earnings beat":  "Positive",
		"guidance cut":   "Negative.",
		"board meeting":  "Neutral",
		"upgrade issued": "Positive",
	}}
	s := NewScorer(gen, time.UTC, quietLogger())

	day1 := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	articles := []news.Article{
		{Time: day1, Headline: "earnings beat"},
		{Time: day1, Headline: "guidance cut"},
		{Time: day1, Headline: "upgrade issued"},
		{Time: day2, Headline: "board meeting"},
	}

	series, err := s.Score(context.Background(), articles)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got := series.Get("2024-03-01"); got != 1 {
		t.Errorf("day 1 sum = %d, want +1-1+1 = 1", got)
	}
	if got := series.Get("2024-03-04"); got != 0 {
		t.Errorf("day 2 sum = %d, want 0", got)
	}
}

func TestScorerBucketsInExchangeTime(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	gen := &fakeGenerator{replies: map[string]string{"late wire": "Positive"}}
	s := NewScorer(gen, loc, quietLogger())

	// 02:00 UTC on March 2 is still March 1 in exchange time.
	articles := []news.Article{
		{Time: time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC), Headline: "late wire"},
	}
	series, err := s.Score(context.Background(), articles)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got := series.Get("2024-03-01"); got != 1 {
		t.Errorf("vote landed on %v, want 2024-03-01", series.Days())
	}
}

func TestScorerTreatsUnknownLabelAsNeutral(t *testing.T) {
	gen := &fakeGenerator{replies: map[string]string{"odd reply": "somewhat bullish I think"}}
	s := NewScorer(gen, time.UTC, quietLogger())

	series, err := s.Score(context.Background(), []news.Article{
		{Time: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), Headline: "odd reply"},
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got := series.Get("2024-03-01"); got != 0 {
		t.Errorf("sum = %d, want neutral 0", got)
	}
}

// capturingGenerator records the prompt it was handed.
type capturingGenerator struct {
	prompt string
}

func (c *capturingGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	c.prompt = prompt
	return "Neutral", nil
}

func TestScorerTruncatesBodyOnRuneBoundary(t *testing.T) {
	gen := &capturingGenerator{}
	s := NewScorer(gen, time.UTC, quietLogger())

	// Place a two-byte rune so it straddles the truncation point.
	body := strings.Repeat("a", maxPromptChars-1) + "é" + strings.Repeat("b", 100)
	_, err := s.ScoreArticle(context.Background(), news.Article{
		Time:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Headline: "long wire",
		Content:  body,
	})
	if err != nil {
		t.Fatalf("ScoreArticle: %v", err)
	}
	if !utf8.ValidString(gen.prompt) {
		t.Error("prompt contains a split rune after truncation")
	}
	if len(gen.prompt) == 0 || len(gen.prompt) > len("long wire\n\n")+maxPromptChars {
		t.Errorf("prompt length = %d, want body capped at %d bytes", len(gen.prompt), maxPromptChars)
	}
}

func TestScorerAbortsOnTransportError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	s := NewScorer(gen, time.UTC, quietLogger())
	s.retryDelay = time.Millisecond

	_, err := s.Score(context.Background(), []news.Article{
		{Time: time.Now(), Headline: "anything"},
	})
	if err == nil {
		t.Fatal("expected the batch to fail on a transport error")
	}
}
