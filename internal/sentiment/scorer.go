package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"saturn/internal/news"
	"saturn/internal/util"
)

const scoringSystem = `You are a financial news analyst. Classify the sentiment of the article for the company's stock. Answer with exactly one word: Positive, Negative, or Neutral.`

// maxPromptChars caps how much article body goes into one scoring request.
const maxPromptChars = 4000

// Generator is the completion capability the scorer needs from a model
// client.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Scorer labels articles with a polarity vote and aggregates the votes into
// a daily Series. Article days are bucketed in the given location so that
// evening news lands on the exchange's calendar day, not UTC's.
type Scorer struct {
	gen        Generator
	loc        *time.Location
	log        *slog.Logger
	retryDelay time.Duration
}

// NewScorer creates a Scorer. A nil location buckets days in UTC; a nil
// logger falls back to the default.
func NewScorer(gen Generator, loc *time.Location, log *slog.Logger) *Scorer {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scorer{gen: gen, loc: loc, log: log, retryDelay: time.Second}
}

// ScoreArticle asks the model to label one article and returns the vote:
// +1 positive, -1 negative, 0 neutral. A reply that names no known label is
// an error.
func (s *Scorer) ScoreArticle(ctx context.Context, a news.Article) (int, error) {
	prompt := a.Headline
	if a.Content != "" {
		body := a.Content
		if len(body) > maxPromptChars {
			// Back off to a rune boundary so the cut never splits a
			// multi-byte character.
			cut := maxPromptChars
			for cut > 0 && !utf8.RuneStart(body[cut]) {
				cut--
			}
			body = body[:cut]
		}
		prompt += "\n\n" + body
	}

	var reply string
	err := util.Retry(ctx, 3, s.retryDelay, func() error {
		var genErr error
		reply, genErr = s.gen.Generate(ctx, scoringSystem, prompt)
		return genErr
	})
	if err != nil {
		return 0, fmt.Errorf("score article %q: %w", a.Headline, err)
	}
	return ParseLabel(reply)
}

// ArticleVote pairs an article with its polarity vote and the exchange-time
// day the vote counts toward.
type ArticleVote struct {
	Article news.Article
	Day     string
	Vote    int
}

// ScoreAll labels every article. An article whose reply cannot be parsed
// counts as neutral and is logged; a transport failure aborts the whole
// batch.
func (s *Scorer) ScoreAll(ctx context.Context, articles []news.Article) ([]ArticleVote, error) {
	votes := make([]ArticleVote, 0, len(articles))
	for _, a := range articles {
		vote, err := s.ScoreArticle(ctx, a)
		if err != nil {
			if !errors.Is(err, errNoLabel) {
				return nil, err
			}
			s.log.Warn("unparseable sentiment label",
				"headline", a.Headline, "error", err)
			vote = 0
		}
		votes = append(votes, ArticleVote{
			Article: a,
			Day:     util.DayKey(a.Time, s.loc),
			Vote:    vote,
		})
	}
	return votes, nil
}

// Score labels every article and returns the per-day vote sums.
func (s *Scorer) Score(ctx context.Context, articles []news.Article) (*Series, error) {
	votes, err := s.ScoreAll(ctx, articles)
	if err != nil {
		return nil, err
	}
	series := NewSeries()
	for _, v := range votes {
		series.Add(v.Day, v.Vote)
	}
	return series, nil
}

var errNoLabel = errors.New("no sentiment label in reply")

// ParseLabel maps a model reply onto a vote. Matching is case-insensitive
// and tolerates surrounding punctuation or explanation, taking the first
// label word that appears.
func ParseLabel(reply string) (int, error) {
	for _, field := range strings.Fields(reply) {
		word := strings.ToLower(strings.Trim(field, ".,!:;\"'()*"))
		switch word {
		case "positive":
			return 1, nil
		case "negative":
			return -1, nil
		case "neutral":
			return 0, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errNoLabel, strings.TrimSpace(reply))
}
