package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"saturn/internal/sentiment"
)

var _ SentimentStore = (*SQLiteStore)(nil)
var _ RunStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS article_votes (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol   TEXT NOT NULL,
	day      TEXT NOT NULL,
	source   TEXT NOT NULL,
	headline TEXT NOT NULL,
	vote     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_article_votes_symbol_day
	ON article_votes(symbol, day);

CREATE TABLE IF NOT EXISTS daily_sentiment (
	symbol   TEXT NOT NULL,
	day      TEXT NOT NULL,
	votes    INTEGER NOT NULL,
	articles INTEGER NOT NULL,
	PRIMARY KEY (symbol, day)
);

CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol       TEXT NOT NULL,
	strategy     TEXT NOT NULL,
	start_day    TEXT NOT NULL,
	end_day      TEXT NOT NULL,
	initial_cash REAL NOT NULL,
	final_equity REAL NOT NULL,
	total_return REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	sharpe       REAL,
	trade_count  INTEGER NOT NULL,
	created_at   TEXT NOT NULL
);
`

// SQLiteStore implements SentimentStore and RunStore backed by one SQLite
// database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveVotes records scored articles and recomputes the daily sums for every
// (symbol, day) the batch touches, all in one transaction.
func (s *SQLiteStore) SaveVotes(ctx context.Context, votes []ArticleVote) error {
	if len(votes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO article_votes (symbol, day, source, headline, vote) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insert.Close()

	type key struct{ symbol, day string }
	touched := make(map[key]struct{})
	for _, v := range votes {
		if _, err := insert.ExecContext(ctx, v.Symbol, v.Day, v.Source, v.Headline, v.Vote); err != nil {
			return fmt.Errorf("insert vote for %s/%s: %w", v.Symbol, v.Day, err)
		}
		touched[key{v.Symbol, v.Day}] = struct{}{}
	}

	// Daily sums always reflect the full vote table, so re-saving a window
	// keeps them consistent.
	for k := range touched {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO daily_sentiment (symbol, day, votes, articles)
			SELECT symbol, day, SUM(vote), COUNT(*)
			FROM article_votes WHERE symbol = ? AND day = ?
			GROUP BY symbol, day
			ON CONFLICT (symbol, day) DO UPDATE SET
				votes = excluded.votes,
				articles = excluded.articles`,
			k.symbol, k.day)
		if err != nil {
			return fmt.Errorf("refresh daily sum for %s/%s: %w", k.symbol, k.day, err)
		}
	}

	return tx.Commit()
}

// LoadSeries returns the symbol's daily vote sums within [startDay, endDay].
func (s *SQLiteStore) LoadSeries(ctx context.Context, symbol, startDay, endDay string) (*sentiment.Series, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day, votes FROM daily_sentiment
		 WHERE symbol = ? AND day >= ? AND day <= ?`,
		symbol, startDay, endDay)
	if err != nil {
		return nil, fmt.Errorf("load sentiment for %s: %w", symbol, err)
	}
	defer rows.Close()

	series := sentiment.NewSeries()
	for rows.Next() {
		var day string
		var sum int
		if err := rows.Scan(&day, &sum); err != nil {
			return nil, err
		}
		series.Set(day, sum)
	}
	return series, rows.Err()
}

// SaveRun records a completed run and returns its assigned ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run RunRecord) (int64, error) {
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
			(symbol, strategy, start_day, end_day, initial_cash,
			 final_equity, total_return, max_drawdown, sharpe, trade_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Symbol, run.Strategy, run.StartDay, run.EndDay, run.InitialCash,
		run.FinalEquity, run.TotalReturn, run.MaxDrawdown, sharpeValue(run.Sharpe),
		run.TradeCount, created.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, strategy, start_day, end_day, initial_cash,
		       final_equity, total_return, max_drawdown, sharpe, trade_count, created_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var sharpe sql.NullFloat64
		var created string
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Strategy, &r.StartDay, &r.EndDay,
			&r.InitialCash, &r.FinalEquity, &r.TotalReturn, &r.MaxDrawdown,
			&sharpe, &r.TradeCount, &created); err != nil {
			return nil, err
		}
		if sharpe.Valid {
			v := sharpe.Float64
			r.Sharpe = &v
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.CreatedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func sharpeValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
