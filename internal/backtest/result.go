package backtest

import (
	"time"

	"saturn/internal/domain"
)

// Result is the recorded history of one run: the equity curve (one point per
// bar processed, in date order), the closed trades, the rejections, and the
// final portfolio state. A Result is append-only during the run and read-only
// afterwards.
type Result struct {
	Symbol         string                 `json:"symbol"`
	Strategy       string                 `json:"strategy"`
	Status         string                 `json:"status"`
	InitialCash    float64                `json:"initial_cash"`
	CommissionRate float64                `json:"commission_rate"`
	EquityCurve    []domain.EquityPoint   `json:"equity_curve"`
	Trades         []domain.Trade         `json:"trades"`
	Rejected       []domain.RejectedOrder `json:"rejected"`
	Final          domain.PortfolioState  `json:"final"`
}

// Start returns the date of the first processed bar, or the zero time when
// the curve is empty.
func (r *Result) Start() time.Time {
	if len(r.EquityCurve) == 0 {
		return time.Time{}
	}
	return r.EquityCurve[0].Date
}

// End returns the date of the last processed bar, or the zero time when the
// curve is empty.
func (r *Result) End() time.Time {
	if len(r.EquityCurve) == 0 {
		return time.Time{}
	}
	return r.EquityCurve[len(r.EquityCurve)-1].Date
}
