package backtest

import (
	"context"
	"log/slog"

	"saturn/internal/domain"
	"saturn/internal/indicator"
	"saturn/internal/strategy"
)

// phase tracks where the simulator is in its forward-only lifecycle.
type phase int

const (
	phaseInitializing phase = iota
	phaseWarmingUp
	phaseRunning
	phaseComplete
)

func (p phase) String() string {
	switch p {
	case phaseInitializing:
		return "initializing"
	case phaseWarmingUp:
		return "warming_up"
	case phaseRunning:
		return "running"
	default:
		return "complete"
	}
}

// Config holds the run parameters of a single backtest.
type Config struct {
	Symbol         string
	InitialCash    float64
	CommissionRate float64
}

// DefaultConfig returns the standard run parameters.
func DefaultConfig() Config {
	return Config{
		InitialCash:    100_000,
		CommissionRate: 0.001,
	}
}

// validate rejects unusable parameters before the run starts.
func (c Config) validate() error {
	if c.InitialCash <= 0 {
		return &domain.InvalidConfigurationError{
			Field:  "initial_cash",
			Reason: "must be positive",
		}
	}
	if c.CommissionRate < 0 {
		return &domain.InvalidConfigurationError{
			Field:  "commission_rate",
			Reason: "must not be negative",
		}
	}
	return nil
}

// Simulator walks a bar series once, front to back, feeding each bar to the
// indicator engine, the strategy, and the portfolio. Identical inputs yield
// an identical equity curve and trade log.
type Simulator struct {
	cfg    Config
	strat  strategy.Strategy
	params indicator.Params
	log    *slog.Logger
}

// NewSimulator builds a simulator for one strategy and indicator parameter
// set. It returns InvalidConfigurationError for unusable run parameters.
func NewSimulator(cfg Config, strat strategy.Strategy, params indicator.Params, log *slog.Logger) (*Simulator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{cfg: cfg, strat: strat, params: params, log: log}, nil
}

// Run executes the backtest over bars, which must be strictly ordered by
// date. A decision produced on one bar executes at the next bar's open, so
// no trade ever uses the price of the bar that signaled it. The final open
// position, if any, stays open and is marked at the last close.
//
// Cancellation is checked once per bar; on cancellation the partial result
// recorded so far is returned together with the context's error.
func (s *Simulator) Run(ctx context.Context, bars []domain.Bar) (*Result, error) {
	warmup := s.params.Warmup()
	// Warmup() is at least 1, so this also rejects an empty series.
	if len(bars) < warmup {
		return nil, &domain.InsufficientDataError{Bars: len(bars), Required: warmup}
	}

	st := phaseInitializing
	port := NewPortfolio(s.cfg.InitialCash, s.cfg.CommissionRate)
	engine := indicator.NewEngine(s.params)
	res := &Result{
		Symbol:         s.cfg.Symbol,
		Strategy:       s.strat.Name(),
		InitialCash:    s.cfg.InitialCash,
		CommissionRate: s.cfg.CommissionRate,
		EquityCurve:    make([]domain.EquityPoint, 0, len(bars)),
	}

	pending := domain.Hold
	for i, bar := range bars {
		select {
		case <-ctx.Done():
			s.finish(res, port, st)
			return res, ctx.Err()
		default:
		}

		// The previous bar's decision fills at this bar's open.
		if pending.Action != domain.ActionHold {
			before := len(port.Rejected())
			port.Execute(s.cfg.Symbol, pending, bar.Date, bar.Open)
			if rej := port.Rejected(); len(rej) > before {
				r := rej[len(rej)-1]
				s.log.Warn("order rejected",
					"symbol", s.cfg.Symbol,
					"date", r.Date.Format("2006-01-02"),
					"action", r.Action,
					"reason", r.Reason)
			}
			pending = domain.Hold
		}

		snap := engine.Update(bar)
		if i+1 < warmup {
			st = phaseWarmingUp
		} else {
			st = phaseRunning
			pending = s.strat.Evaluate(snap, bar.Sentiment, port.Position())
		}

		res.EquityCurve = append(res.EquityCurve, domain.EquityPoint{
			Date:   bar.Date,
			Equity: port.Equity(bar.Close),
		})
	}

	s.finish(res, port, phaseComplete)
	s.log.Info("backtest complete",
		"symbol", s.cfg.Symbol,
		"strategy", s.strat.Name(),
		"bars", len(bars),
		"trades", len(res.Trades),
		"final_equity", res.Final.Equity)
	return res, nil
}

// finish copies the portfolio's history into the result. The final state
// marks any open position at the last recorded equity, it never liquidates.
func (s *Simulator) finish(res *Result, port *Portfolio, st phase) {
	res.Status = st.String()
	res.Trades = port.Trades()
	res.Rejected = port.Rejected()
	equity := port.Cash()
	if n := len(res.EquityCurve); n > 0 {
		equity = res.EquityCurve[n-1].Equity
	}
	res.Final = domain.PortfolioState{
		Cash:     port.Cash(),
		Position: port.Position(),
		Equity:   equity,
	}
}
