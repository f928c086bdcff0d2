package backtest

import (
	"math"

	"saturn/internal/domain"
)

const (
	tradingDaysPerYear = 252

	// Variability-weighted return shape parameters.
	vwrTau     = 2.0
	vwrSdevMax = 0.2
)

// TradeStats summarizes the closed trades of a run.
type TradeStats struct {
	Count   int     `json:"count"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
	AvgWin  float64 `json:"avg_win"`  // mean net PnL of winning trades
	AvgLoss float64 `json:"avg_loss"` // mean net PnL of losing trades, negative
}

// Statistics is the analyzer output. Ratios that are undefined for the run
// (zero variance, too few trades) are nil rather than zero.
type Statistics struct {
	TotalReturn      float64    `json:"total_return"`
	AnnualizedReturn float64    `json:"annualized_return"`
	MaxDrawdown      float64    `json:"max_drawdown"`
	Sharpe           *float64   `json:"sharpe"`
	SQN              *float64   `json:"sqn"`
	VWR              *float64   `json:"vwr"`
	Trades           TradeStats `json:"trades"`
}

// Analyze computes performance statistics from a run's recorded history.
// It reads the result without modifying it; calling it twice on the same
// result yields identical statistics.
func Analyze(res *Result) Statistics {
	var stats Statistics
	curve := res.EquityCurve
	if len(curve) == 0 {
		stats.Trades = tradeStats(res.Trades)
		return stats
	}

	first, last := curve[0].Equity, curve[len(curve)-1].Equity
	if first != 0 {
		stats.TotalReturn = last/first - 1
	}

	returns := dailyReturns(curve)
	if len(returns) > 0 {
		mean := meanOf(returns)
		stats.AnnualizedReturn = mean * tradingDaysPerYear
		if sd := stddevOf(returns, mean); sd > 0 {
			sharpe := mean / sd * math.Sqrt(tradingDaysPerYear)
			stats.Sharpe = &sharpe
		}
	}

	stats.MaxDrawdown = maxDrawdown(curve)
	stats.SQN = sqn(res.Trades)
	stats.VWR = vwr(curve)
	stats.Trades = tradeStats(res.Trades)
	return stats
}

// dailyReturns converts the equity curve into simple bar-over-bar returns.
func dailyReturns(curve []domain.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, curve[i].Equity/prev-1)
	}
	return returns
}

// maxDrawdown returns the deepest peak-to-trough decline as a fraction of
// the running peak.
func maxDrawdown(curve []domain.EquityPoint) float64 {
	var peak, deepest float64
	for _, pt := range curve {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		if peak > 0 {
			if dd := (peak - pt.Equity) / peak; dd > deepest {
				deepest = dd
			}
		}
	}
	return deepest
}

// sqn is the system quality number: sqrt(n) * mean(pnl) / stddev(pnl).
// Undefined with fewer than two trades or zero PnL variance.
func sqn(trades []domain.Trade) *float64 {
	if len(trades) < 2 {
		return nil
	}
	pnls := make([]float64, len(trades))
	for i, t := range trades {
		pnls[i] = t.PnL
	}
	mean := meanOf(pnls)
	sd := stddevOf(pnls, mean)
	if sd == 0 {
		return nil
	}
	v := math.Sqrt(float64(len(pnls))) * mean / sd
	return &v
}

// vwr is the variability-weighted return: the annualized log-growth rate in
// percent, penalized by how far the equity curve strays from its own
// zero-variability exponential path.
func vwr(curve []domain.EquityPoint) *float64 {
	n := len(curve)
	if n < 2 || curve[0].Equity <= 0 || curve[n-1].Equity <= 0 {
		return nil
	}
	v0 := curve[0].Equity
	meanLog := math.Log(curve[n-1].Equity/v0) / float64(n-1)

	devs := make([]float64, n)
	for i, pt := range curve {
		zero := v0 * math.Exp(meanLog*float64(i))
		devs[i] = pt.Equity/zero - 1
	}
	sdevP := stddevOf(devs, meanOf(devs))

	annualPct := 100 * (math.Exp(meanLog*tradingDaysPerYear) - 1)
	v := annualPct * (1 - math.Pow(sdevP/vwrSdevMax, vwrTau))
	return &v
}

func tradeStats(trades []domain.Trade) TradeStats {
	st := TradeStats{Count: len(trades)}
	var winSum, lossSum float64
	for _, t := range trades {
		if t.PnL > 0 {
			st.Wins++
			winSum += t.PnL
		} else {
			st.Losses++
			lossSum += t.PnL
		}
	}
	if st.Count > 0 {
		st.WinRate = float64(st.Wins) / float64(st.Count)
	}
	if st.Wins > 0 {
		st.AvgWin = winSum / float64(st.Wins)
	}
	if st.Losses > 0 {
		st.AvgLoss = lossSum / float64(st.Losses)
	}
	return st
}

func meanOf(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddevOf returns the population standard deviation around the given mean.
func stddevOf(xs []float64, mean float64) float64 {
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
