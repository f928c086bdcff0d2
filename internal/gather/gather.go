// Package gather downloads the historical market data the backtester runs
// on: daily OHLCV bars for the configured symbols, written to the Parquet
// store.
package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"saturn/internal/domain"
	"saturn/internal/store"
	"saturn/internal/util"
)

// Gatherer is a one-shot data download. Run returns when the range is
// fetched or the context is cancelled.
type Gatherer interface {
	Name() string
	Run(ctx context.Context) error
}

var _ Gatherer = (*DailyBarGatherer)(nil)

// DailyBarGatherer fetches daily bars for a fixed symbol list from the
// Alpaca market-data API and writes them to the bar store. Re-running over
// an already fetched range is idempotent because the store merges on write.
type DailyBarGatherer struct {
	md       *marketdata.Client
	trading  *alpaca.Client
	store    store.BarStore
	symbols  []string
	start    time.Time
	end      time.Time // zero means latest finished trading day
	limiter  *util.RateLimiter
	log      *slog.Logger
}

// DailyBarConfig configures a DailyBarGatherer.
type DailyBarConfig struct {
	APIKey          string
	APISecret       string
	DataURL         string // marketdata API base, empty for default
	BaseURL         string // trading API base for the calendar, empty for default
	Symbols         []string
	Start           time.Time
	End             time.Time
	RateLimitPerMin int
}

// NewDailyBarGatherer creates a gatherer for the configured symbols.
func NewDailyBarGatherer(cfg DailyBarConfig, s store.BarStore, log *slog.Logger) *DailyBarGatherer {
	mdOpts := marketdata.ClientOpts{APIKey: cfg.APIKey, APISecret: cfg.APISecret}
	if cfg.DataURL != "" {
		mdOpts.BaseURL = cfg.DataURL
	}
	perMin := cfg.RateLimitPerMin
	if perMin <= 0 {
		perMin = 200
	}
	if log == nil {
		log = slog.Default()
	}
	return &DailyBarGatherer{
		md: marketdata.NewClient(mdOpts),
		trading: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			BaseURL:   cfg.BaseURL,
		}),
		store:   s,
		symbols: cfg.Symbols,
		start:   cfg.Start,
		end:     cfg.End,
		limiter: util.NewRateLimiter(perMin),
		log:     log.With("gatherer", "daily-bars"),
	}
}

// Name returns the gatherer identifier.
func (g *DailyBarGatherer) Name() string { return "daily-bars" }

// Run fetches the configured symbols' bars in one multi-symbol request per
// batch and writes them to the store.
func (g *DailyBarGatherer) Run(ctx context.Context) error {
	if len(g.symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}

	end := g.end
	if end.IsZero() {
		var err error
		end, err = g.latestFinishedTradingDay()
		if err != nil {
			return fmt.Errorf("determining end date: %w", err)
		}
	}

	g.log.Info("starting bar download",
		"symbols", len(g.symbols),
		"start", g.start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"))

	runStart := time.Now()
	total := 0
	const batchSize = 100
	for i := 0; i < len(g.symbols); i += batchSize {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		batch := g.symbols[i:min(i+batchSize, len(g.symbols))]

		bars, err := g.fetchMultiBars(ctx, batch, g.start, end)
		if err != nil {
			return fmt.Errorf("fetching bars for batch %v: %w", batch, err)
		}
		if err := g.store.WriteBars(ctx, bars); err != nil {
			return fmt.Errorf("writing bars: %w", err)
		}
		total += len(bars)
	}

	g.log.Info("bar download complete",
		"bars", total,
		"elapsed", time.Since(runStart).Round(time.Second))
	return nil
}

// fetchMultiBars fetches daily bars for multiple symbols in one API call.
func (g *DailyBarGatherer) fetchMultiBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	multiBars, err := g.md.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol: strings.ToUpper(symbol),
				Date:   ab.Timestamp.UTC(),
				Open:   ab.Open,
				High:   ab.High,
				Low:    ab.Low,
				Close:  ab.Close,
				Volume: int64(ab.Volume),
			})
		}
	}
	return bars, nil
}

// latestFinishedTradingDay returns the most recent trading day whose session
// has ended, using the Alpaca trading calendar. "Ended" means after 20:05 ET
// so extended-hours data has settled.
func (g *DailyBarGatherer) latestFinishedTradingDay() (time.Time, error) {
	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.Time{}, fmt.Errorf("loading ET timezone: %w", err)
	}

	now := time.Now().In(et)
	calendar, err := g.trading.GetCalendar(alpaca.GetCalendarRequest{
		Start: now.AddDate(0, 0, -7),
		End:   now,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("GetCalendar: %w", err)
	}
	if len(calendar) == 0 {
		return time.Time{}, fmt.Errorf("no trading days returned from calendar")
	}

	today := now.Format("2006-01-02")
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 20, 5, 0, 0, et)

	for i := len(calendar) - 1; i >= 0; i-- {
		day := calendar[i]
		if day.Date == today && !now.After(cutoff) {
			continue
		}
		dayDate, err := util.ParseDay(day.Date)
		if err != nil {
			continue
		}
		if !dayDate.After(now) {
			return dayDate, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not determine latest finished trading day")
}
