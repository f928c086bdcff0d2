// Runs one backtest over stored bars and sentiment and prints the report.
//
// Usage:
//
//	go build -o bin/saturn-backtest ./cmd/saturn-backtest/
//	bin/saturn-backtest [-symbol AAPL] [-strategy sentiment-advanced] [-start 2024-01-01] [-end 2024-06-30]
//
// Flags override the backtest section of the config file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"saturn/internal/backtest"
	"saturn/internal/config"
	"saturn/internal/dataset"
	"saturn/internal/report"
	"saturn/internal/sentiment"
	"saturn/internal/store"
	"saturn/internal/strategy/builtins"
	"saturn/internal/util"
)

func main() {
	symbolFlag := flag.String("symbol", "", "symbol to backtest")
	strategyFlag := flag.String("strategy", "", "strategy name: technical | sentiment-basic | sentiment-advanced")
	startFlag := flag.String("start", "", "first day, YYYY-MM-DD")
	endFlag := flag.String("end", "", "last day, YYYY-MM-DD")
	cashFlag := flag.Float64("cash", 0, "initial cash")
	noSave := flag.Bool("no-save", false, "do not persist the run")
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

	// Flag overrides.
	if *symbolFlag != "" {
		cfg.Backtest.Symbol = *symbolFlag
	}
	if *strategyFlag != "" {
		cfg.Strategy.Name = *strategyFlag
	}
	if *startFlag != "" {
		cfg.Backtest.StartDate = *startFlag
	}
	if *endFlag != "" {
		cfg.Backtest.EndDate = *endFlag
	}
	if *cashFlag > 0 {
		cfg.Backtest.InitialCash = *cashFlag
	}
	if cfg.Backtest.InitialCash == 0 {
		cfg.Backtest.InitialCash = backtest.DefaultConfig().InitialCash
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	symbol := strings.ToUpper(strings.TrimSpace(cfg.Backtest.Symbol))
	start, err := util.ParseDay(cfg.Backtest.StartDate)
	if err != nil {
		log.Fatalf("invalid backtest.start_date %q: %v", cfg.Backtest.StartDate, err)
	}
	end, err := util.ParseDay(cfg.Backtest.EndDate)
	if err != nil {
		log.Fatalf("invalid backtest.end_date %q: %v", cfg.Backtest.EndDate, err)
	}

	stratName := cfg.Strategy.Name
	if stratName == "" {
		stratName = "technical"
	}
	params := builtins.FromConfig(cfg.Strategy)
	strat, err := builtins.New(stratName, params)
	if err != nil {
		log.Fatalf("building strategy: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bars, err := store.NewParquetStore(cfg.Storage.DataDir).ReadBars(ctx, symbol, start, end)
	if err != nil {
		log.Fatalf("reading bars: %v", err)
	}
	if len(bars) == 0 {
		log.Fatalf("no bars stored for %s in [%s, %s]; run saturn-gather first",
			symbol, cfg.Backtest.StartDate, cfg.Backtest.EndDate)
	}

	// Sentiment is optional: without a database every day scores neutral.
	var series *sentiment.Series
	var db *store.SQLiteStore
	if cfg.Storage.SQLitePath != "" {
		db, err = store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening sqlite store: %v", err)
		}
		defer db.Close()
		series, err = db.LoadSeries(ctx, symbol, cfg.Backtest.StartDate, cfg.Backtest.EndDate)
		if err != nil {
			log.Fatalf("loading sentiment: %v", err)
		}
	}

	merged, err := dataset.Merge(bars, series)
	if err != nil {
		log.Fatalf("aligning dataset: %v", err)
	}

	runCfg := backtest.Config{
		Symbol:         symbol,
		InitialCash:    cfg.Backtest.InitialCash,
		CommissionRate: cfg.Backtest.CommissionRate,
	}
	sim, err := backtest.NewSimulator(runCfg, strat, params.Indicator, logger)
	if err != nil {
		log.Fatalf("building simulator: %v", err)
	}
	res, err := sim.Run(ctx, merged)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}
	stats := backtest.Analyze(res)

	fmt.Print(report.Render(res, stats))

	if db != nil && !*noSave {
		id, err := db.SaveRun(ctx, store.RunRecord{
			Symbol:      symbol,
			Strategy:    res.Strategy,
			StartDay:    cfg.Backtest.StartDate,
			EndDay:      cfg.Backtest.EndDate,
			InitialCash: runCfg.InitialCash,
			FinalEquity: res.Final.Equity,
			TotalReturn: stats.TotalReturn,
			MaxDrawdown: stats.MaxDrawdown,
			Sharpe:      stats.Sharpe,
			TradeCount:  stats.Trades.Count,
		})
		if err != nil {
			logger.Warn("persisting run", "error", err)
		} else {
			logger.Info("run saved", "id", id)
		}
	}
}
