// Downloads daily OHLCV bars from Alpaca into the Parquet bar store.
//
// Usage:
//
//	go build -o bin/saturn-gather ./cmd/saturn-gather/
//	bin/saturn-gather -symbols AAPL,MSFT -start 2023-01-01 [-end 2024-12-31]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"saturn/internal/config"
	"saturn/internal/gather"
	"saturn/internal/store"
	"saturn/internal/util"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols to download (required)")
	startFlag := flag.String("start", "", "first day to download, YYYY-MM-DD (required)")
	endFlag := flag.String("end", "", "last day to download, YYYY-MM-DD (default: latest finished trading day)")
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

	if *symbolsFlag == "" {
		log.Fatal("-symbols is required")
	}
	var symbols []string
	for _, s := range strings.Split(*symbolsFlag, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}

	start, err := util.ParseDay(*startFlag)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	var end time.Time
	if *endFlag != "" {
		if end, err = util.ParseDay(*endFlag); err != nil {
			log.Fatalf("invalid -end: %v", err)
		}
	}

	if cfg.Alpaca.APIKey == "" {
		log.Fatal("alpaca api key not configured (APCA_API_KEY_ID)")
	}

	g := gather.NewDailyBarGatherer(gather.DailyBarConfig{
		APIKey:          cfg.Alpaca.APIKey,
		APISecret:       cfg.Alpaca.APISecret,
		DataURL:         cfg.Alpaca.DataURL,
		BaseURL:         cfg.Alpaca.BaseURL,
		Symbols:         symbols,
		Start:           start,
		End:             end,
		RateLimitPerMin: cfg.News.RateLimitPerMin,
	}, store.NewParquetStore(cfg.Storage.DataDir), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := g.Run(ctx); err != nil {
		log.Fatalf("gather failed: %v", err)
	}
}
