// Package store persists the platform's data: daily bars in Parquet files
// and sentiment votes plus backtest run summaries in SQLite.
package store

import (
	"context"
	"time"

	"saturn/internal/domain"
	"saturn/internal/sentiment"
)

// BarStore persists and retrieves daily OHLCV bars.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with already stored ones.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns the symbol's bars within [start, end], date ascending.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all symbols with stored bars.
	ListSymbols(ctx context.Context) ([]string, error)
}

// ArticleVote is one scored article: the polarity vote the model assigned,
// keyed to the symbol and calendar day it counts toward.
type ArticleVote struct {
	Symbol   string
	Day      string // YYYY-MM-DD
	Source   string
	Headline string
	Vote     int
}

// SentimentStore persists per-article votes and the per-day sums derived
// from them.
type SentimentStore interface {
	// SaveVotes records scored articles and refreshes the affected daily sums.
	SaveVotes(ctx context.Context, votes []ArticleVote) error

	// LoadSeries returns the symbol's daily vote sums within [startDay, endDay].
	LoadSeries(ctx context.Context, symbol, startDay, endDay string) (*sentiment.Series, error)
}

// RunRecord is a persisted backtest run summary.
type RunRecord struct {
	ID          int64     `json:"id"`
	Symbol      string    `json:"symbol"`
	Strategy    string    `json:"strategy"`
	StartDay    string    `json:"start_day"`
	EndDay      string    `json:"end_day"`
	InitialCash float64   `json:"initial_cash"`
	FinalEquity float64   `json:"final_equity"`
	TotalReturn float64   `json:"total_return"`
	MaxDrawdown float64   `json:"max_drawdown"`
	Sharpe      *float64  `json:"sharpe"`
	TradeCount  int       `json:"trade_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunStore persists backtest run summaries.
type RunStore interface {
	// SaveRun records a completed run and returns its assigned ID.
	SaveRun(ctx context.Context, run RunRecord) (int64, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
