// Fetches news articles for a symbol, scores each with the local Ollama
// model, and saves the per-article votes to SQLite. Daily sentiment sums are
// refreshed by the store on save.
//
// Usage:
//
//	go build -o bin/saturn-news ./cmd/saturn-news/
//	bin/saturn-news -symbol AAPL -start 2024-01-01 -end 2024-06-30
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"saturn/internal/config"
	"saturn/internal/llm"
	"saturn/internal/news"
	"saturn/internal/sentiment"
	"saturn/internal/store"
	"saturn/internal/util"
)

func main() {
	symbolFlag := flag.String("symbol", "", "symbol to fetch news for (default: backtest.symbol)")
	startFlag := flag.String("start", "", "first day, YYYY-MM-DD (default: backtest.start_date)")
	endFlag := flag.String("end", "", "last day, YYYY-MM-DD (default: backtest.end_date)")
	flag.Parse()

	cfgPath := "config/saturn.yaml"
	if p := os.Getenv("SATURN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	symbol := strings.ToUpper(strings.TrimSpace(*symbolFlag))
	if symbol == "" {
		symbol = strings.ToUpper(strings.TrimSpace(cfg.Backtest.Symbol))
	}
	if symbol == "" {
		log.Fatal("-symbol is required")
	}
	startDay := firstNonEmpty(*startFlag, cfg.Backtest.StartDate)
	endDay := firstNonEmpty(*endFlag, cfg.Backtest.EndDate)

	start, err := util.ParseDay(startDay)
	if err != nil {
		log.Fatalf("invalid start day %q: %v", startDay, err)
	}
	end, err := util.ParseDay(endDay)
	if err != nil {
		log.Fatalf("invalid end day %q: %v", endDay, err)
	}
	// Include the end day's articles.
	end = end.Add(24*time.Hour - time.Second)

	// Alpaca news is optional; without credentials the fetcher falls back to
	// the public RSS feed.
	var md *marketdata.Client
	if cfg.Alpaca.APIKey != "" {
		md = marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    cfg.Alpaca.APIKey,
			APISecret: cfg.Alpaca.APISecret,
			BaseURL:   cfg.Alpaca.DataURL,
		})
	}

	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		log.Fatalf("loading ET timezone: %v", err)
	}

	fetcher := news.NewFetcher(md, cfg.News.RateLimitPerMin, cfg.News.MaxPerDay, logger)
	client := llm.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Model, time.Duration(cfg.Ollama.TimeoutSec)*time.Second)
	scorer := sentiment.NewScorer(client, et, logger)

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening sqlite store: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	articles, err := fetcher.Fetch(ctx, symbol, start, end)
	if err != nil {
		log.Fatalf("fetching news: %v", err)
	}
	logger.Info("fetched articles",
		"symbol", symbol, "count", len(articles),
		"start", startDay, "end", endDay, "model", client.Model())
	if len(articles) == 0 {
		return
	}

	scored, err := scorer.ScoreAll(ctx, articles)
	if err != nil {
		log.Fatalf("scoring articles: %v", err)
	}

	votes := make([]store.ArticleVote, 0, len(scored))
	for _, v := range scored {
		votes = append(votes, store.ArticleVote{
			Symbol:   symbol,
			Day:      v.Day,
			Source:   v.Article.Source,
			Headline: v.Article.Headline,
			Vote:     v.Vote,
		})
	}
	if err := db.SaveVotes(ctx, votes); err != nil {
		log.Fatalf("saving votes: %v", err)
	}

	slog.Info("sentiment saved", "symbol", symbol, "articles", len(votes))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
