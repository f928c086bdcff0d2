package httpapi

import (
	"saturn/internal/backtest"
	"saturn/internal/domain"
	"saturn/internal/indicator"
	"saturn/internal/store"
	"saturn/internal/strategy/builtins"
)

// BacktestRequest is the body of POST /api/v1/backtest. Dates are
// YYYY-MM-DD, inclusive. Omitted numeric fields fall back to the standard
// run parameters.
type BacktestRequest struct {
	Symbol         string          `json:"symbol" binding:"required"`
	Strategy       string          `json:"strategy" binding:"required"`
	Start          string          `json:"start" binding:"required"`
	End            string          `json:"end" binding:"required"`
	InitialCash    float64         `json:"initial_cash"`
	CommissionRate *float64        `json:"commission_rate"`
	IncludeCurve   bool            `json:"include_curve"`
	Params         *StrategyParams `json:"params"`
}

// StrategyParams overrides indicator periods and thresholds per request.
// Zero-valued fields keep their defaults.
type StrategyParams struct {
	FastMA        int     `json:"fast_ma"`
	SlowMA        int     `json:"slow_ma"`
	RSIPeriod     int     `json:"rsi_period"`
	RSIOversold   float64 `json:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought"`
	BollWindow    int     `json:"bollinger_window"`
	BollDev       float64 `json:"bollinger_dev"`
	EMAWindow     int     `json:"ema_window"`
	MACDFast      int     `json:"macd_fast"`
	MACDSlow      int     `json:"macd_slow"`
	MACDSignal    int     `json:"macd_signal"`
	StochK        int     `json:"stochastic_k"`
	StochD        int     `json:"stochastic_d"`
}

// toBuiltins maps the request overrides onto rule parameters.
func (p *StrategyParams) toBuiltins() builtins.Params {
	out := builtins.DefaultParams()
	if p == nil {
		return out
	}
	out.Indicator = indicator.Params{
		FastMA:     p.FastMA,
		SlowMA:     p.SlowMA,
		RSIPeriod:  p.RSIPeriod,
		BollWindow: p.BollWindow,
		BollDev:    p.BollDev,
		EMAWindow:  p.EMAWindow,
		MACDFast:   p.MACDFast,
		MACDSlow:   p.MACDSlow,
		MACDSignal: p.MACDSignal,
		StochK:     p.StochK,
		StochD:     p.StochD,
	}
	out.RSIOversold = p.RSIOversold
	out.RSIOverbought = p.RSIOverbought
	return out
}

// BacktestResponse is the body of a successful backtest run.
type BacktestResponse struct {
	RunID       int64                  `json:"run_id,omitempty"`
	Symbol      string                 `json:"symbol"`
	Strategy    string                 `json:"strategy"`
	Status      string                 `json:"status"`
	Bars        int                    `json:"bars"`
	Stats       backtest.Statistics    `json:"stats"`
	Final       domain.PortfolioState  `json:"final"`
	Trades      []domain.Trade         `json:"trades"`
	Rejected    []domain.RejectedOrder `json:"rejected,omitempty"`
	EquityCurve []domain.EquityPoint   `json:"equity_curve,omitempty"`
}

// StrategiesResponse lists the available strategy names.
type StrategiesResponse struct {
	Strategies []string `json:"strategies"`
}

// RunsResponse lists persisted run summaries, newest first.
type RunsResponse struct {
	Runs []store.RunRecord `json:"runs"`
}

// SymbolsResponse lists the symbols with stored bar data.
type SymbolsResponse struct {
	Symbols []string `json:"symbols"`
}

// ErrorResponse carries a request failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
