// Package httpapi serves the backtest REST API: run a simulation over
// stored bars and sentiment, list strategies and symbols, and browse
// persisted runs.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"saturn/internal/backtest"
	"saturn/internal/dataset"
	"saturn/internal/domain"
	"saturn/internal/sentiment"
	"saturn/internal/store"
	"saturn/internal/strategy"
	"saturn/internal/strategy/builtins"
	"saturn/internal/util"
)

// Server wires the stores into the HTTP handlers. The sentiment and run
// stores may be nil; backtests then run on neutral sentiment and are not
// persisted.
type Server struct {
	bars      store.BarStore
	sentiment store.SentimentStore
	runs      store.RunStore
	registry  *strategy.Registry
	log       *slog.Logger
}

// NewServer creates a Server over the given stores.
func NewServer(bars store.BarStore, sent store.SentimentStore, runs store.RunStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	reg := strategy.NewRegistry()
	for _, name := range []string{"technical", "sentiment-basic", "sentiment-advanced"} {
		st, err := builtins.New(name, builtins.DefaultParams())
		if err != nil {
			log.Error("registering builtin strategy", "name", name, "error", err)
			continue
		}
		reg.Register(st)
	}
	return &Server{bars: bars, sentiment: sent, runs: runs, registry: reg, log: log}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/backtest", s.handleBacktest)
		api.GET("/strategies", s.handleStrategies)
		api.GET("/symbols", s.handleSymbols)
		api.GET("/runs", s.handleRuns)
	}
	return r
}

func (s *Server) handleBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	start, err := util.ParseDay(req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid start date: " + req.Start})
		return
	}
	end, err := util.ParseDay(req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid end date: " + req.End})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "end date precedes start date"})
		return
	}

	params := req.Params.toBuiltins()
	strat, err := builtins.New(req.Strategy, params)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	ctx := c.Request.Context()

	bars, err := s.bars.ReadBars(ctx, symbol, start, end)
	if err != nil {
		s.log.Error("reading bars", "symbol", symbol, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "reading bars failed"})
		return
	}

	var series *sentiment.Series
	if s.sentiment != nil {
		series, err = s.sentiment.LoadSeries(ctx, symbol, req.Start, req.End)
		if err != nil {
			s.log.Error("loading sentiment", "symbol", symbol, "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "loading sentiment failed"})
			return
		}
	}

	merged, err := dataset.Merge(bars, series)
	if err != nil {
		s.log.Error("aligning dataset", "symbol", symbol, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "aligning dataset failed"})
		return
	}

	cfg := backtest.DefaultConfig()
	cfg.Symbol = symbol
	if req.InitialCash > 0 {
		cfg.InitialCash = req.InitialCash
	}
	if req.CommissionRate != nil {
		cfg.CommissionRate = *req.CommissionRate
	}

	sim, err := backtest.NewSimulator(cfg, strat, params.Indicator, s.log)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	res, err := sim.Run(ctx, merged)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	stats := backtest.Analyze(res)

	resp := BacktestResponse{
		Symbol:   symbol,
		Strategy: res.Strategy,
		Status:   res.Status,
		Bars:     len(res.EquityCurve),
		Stats:    stats,
		Final:    res.Final,
		Trades:   res.Trades,
		Rejected: res.Rejected,
	}
	if req.IncludeCurve {
		resp.EquityCurve = res.EquityCurve
	}

	if s.runs != nil {
		id, err := s.runs.SaveRun(ctx, store.RunRecord{
			Symbol:      symbol,
			Strategy:    res.Strategy,
			StartDay:    req.Start,
			EndDay:      req.End,
			InitialCash: cfg.InitialCash,
			FinalEquity: res.Final.Equity,
			TotalReturn: stats.TotalReturn,
			MaxDrawdown: stats.MaxDrawdown,
			Sharpe:      stats.Sharpe,
			TradeCount:  stats.Trades.Count,
		})
		if err != nil {
			s.log.Warn("persisting run", "symbol", symbol, "error", err)
		} else {
			resp.RunID = id
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, StrategiesResponse{Strategies: s.registry.List()})
}

func (s *Server) handleSymbols(c *gin.Context) {
	symbols, err := s.bars.ListSymbols(c.Request.Context())
	if err != nil {
		s.log.Error("listing symbols", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "listing symbols failed"})
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	c.JSON(http.StatusOK, SymbolsResponse{Symbols: symbols})
}

func (s *Server) handleRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusOK, RunsResponse{Runs: []store.RunRecord{}})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	runs, err := s.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.log.Error("listing runs", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "listing runs failed"})
		return
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}
	c.JSON(http.StatusOK, RunsResponse{Runs: runs})
}

// statusFor maps run errors to HTTP status codes. Bad parameters and too
// little data are the caller's problem; everything else is ours.
func statusFor(err error) int {
	var invalid *domain.InvalidConfigurationError
	var short *domain.InsufficientDataError
	if errors.As(err, &invalid) || errors.As(err, &short) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
