package backtest

import (
	"context"
	"math"
	"reflect"
	"testing"

	"saturn/internal/domain"
)

func curveOf(values ...float64) []domain.EquityPoint {
	pts := make([]domain.EquityPoint, len(values))
	for i, v := range values {
		pts[i] = domain.EquityPoint{Date: day(i), Equity: v}
	}
	return pts
}

func TestAnalyzeTotalAndAnnualizedReturn(t *testing.T) {
	res := &Result{EquityCurve: curveOf(100, 101)}
	stats := Analyze(res)

	if !almostEq(stats.TotalReturn, 0.01) {
		t.Errorf("TotalReturn = %v, want 0.01", stats.TotalReturn)
	}
	// One daily return of 1%, scaled by 252 trading days.
	if !almostEq(stats.AnnualizedReturn, 0.01*252) {
		t.Errorf("AnnualizedReturn = %v, want %v", stats.AnnualizedReturn, 0.01*252)
	}
}

func TestAnalyzeMaxDrawdown(t *testing.T) {
	res := &Result{EquityCurve: curveOf(100, 120, 90, 110)}
	stats := Analyze(res)

	// Peak 120 to trough 90.
	if !almostEq(stats.MaxDrawdown, 0.25) {
		t.Errorf("MaxDrawdown = %v, want 0.25", stats.MaxDrawdown)
	}
}

func TestAnalyzeSharpeNilOnFlatCurve(t *testing.T) {
	res := &Result{EquityCurve: curveOf(100, 100, 100)}
	stats := Analyze(res)

	if stats.Sharpe != nil {
		t.Errorf("Sharpe = %v, want nil with zero return variance", *stats.Sharpe)
	}
	if stats.AnnualizedReturn != 0 || stats.MaxDrawdown != 0 {
		t.Errorf("flat curve stats = %+v, want zeros", stats)
	}
}

func TestAnalyzeSharpeOnVaryingCurve(t *testing.T) {
	res := &Result{EquityCurve: curveOf(100, 102, 101, 104)}
	stats := Analyze(res)

	if stats.Sharpe == nil {
		t.Fatal("Sharpe should be defined when returns vary")
	}
	returns := []float64{0.02, 101.0/102 - 1, 104.0/101 - 1}
	mean := meanOf(returns)
	want := mean / stddevOf(returns, mean) * math.Sqrt(252)
	if !almostEq(*stats.Sharpe, want) {
		t.Errorf("Sharpe = %v, want %v", *stats.Sharpe, want)
	}
}

func TestAnalyzeSQN(t *testing.T) {
	trades := []domain.Trade{{PnL: 10}, {PnL: 20}}
	stats := Analyze(&Result{EquityCurve: curveOf(100, 101), Trades: trades})

	if stats.SQN == nil {
		t.Fatal("SQN should be defined for two trades with differing PnL")
	}
	// mean 15, population stddev 5: sqrt(2) * 15 / 5.
	want := math.Sqrt(2) * 3
	if !almostEq(*stats.SQN, want) {
		t.Errorf("SQN = %v, want %v", *stats.SQN, want)
	}

	one := Analyze(&Result{EquityCurve: curveOf(100, 101), Trades: trades[:1]})
	if one.SQN != nil {
		t.Error("SQN must be nil with fewer than two trades")
	}

	same := Analyze(&Result{
		EquityCurve: curveOf(100, 101),
		Trades:      []domain.Trade{{PnL: 7}, {PnL: 7}},
	})
	if same.SQN != nil {
		t.Error("SQN must be nil with zero PnL variance")
	}
}

func TestAnalyzeVWRZeroVariabilityCurve(t *testing.T) {
	// An exactly exponential curve has no deviation from its own
	// zero-variability path, so nothing is subtracted from the
	// annualized growth.
	g := math.Log(1.001)
	values := make([]float64, 10)
	for i := range values {
		values[i] = 100 * math.Exp(g*float64(i))
	}
	stats := Analyze(&Result{EquityCurve: curveOf(values...)})

	if stats.VWR == nil {
		t.Fatal("VWR should be defined")
	}
	want := 100 * (math.Exp(g*252) - 1)
	if !almostEq(*stats.VWR, want) {
		t.Errorf("VWR = %v, want %v", *stats.VWR, want)
	}
}

func TestAnalyzeVWRPenalizesVariability(t *testing.T) {
	smooth := Analyze(&Result{EquityCurve: curveOf(100, 101, 102.01, 103.0301)})
	noisy := Analyze(&Result{EquityCurve: curveOf(100, 108, 96, 103.0301)})

	if smooth.VWR == nil || noisy.VWR == nil {
		t.Fatal("VWR should be defined for both curves")
	}
	if *noisy.VWR >= *smooth.VWR {
		t.Errorf("noisy VWR %v should be below smooth VWR %v for the same endpoint", *noisy.VWR, *smooth.VWR)
	}
}

func TestAnalyzeTradeStats(t *testing.T) {
	trades := []domain.Trade{
		{PnL: 100},
		{PnL: 50},
		{PnL: -30},
	}
	stats := Analyze(&Result{EquityCurve: curveOf(100, 101), Trades: trades})

	ts := stats.Trades
	if ts.Count != 3 || ts.Wins != 2 || ts.Losses != 1 {
		t.Fatalf("counts = %+v, want 3/2/1", ts)
	}
	if !almostEq(ts.WinRate, 2.0/3.0) {
		t.Errorf("WinRate = %v, want 2/3", ts.WinRate)
	}
	if !almostEq(ts.AvgWin, 75) {
		t.Errorf("AvgWin = %v, want 75", ts.AvgWin)
	}
	if !almostEq(ts.AvgLoss, -30) {
		t.Errorf("AvgLoss = %v, want -30", ts.AvgLoss)
	}
}

func TestAnalyzeEmptyHistory(t *testing.T) {
	stats := Analyze(&Result{})
	if stats.Sharpe != nil || stats.SQN != nil || stats.VWR != nil {
		t.Error("ratios must be nil with no history")
	}
	if stats.TotalReturn != 0 || stats.Trades.Count != 0 {
		t.Errorf("stats = %+v, want zero values", stats)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	cfg := Config{Symbol: "TEST", InitialCash: 100_000, CommissionRate: 0.001}
	sim := newSim(t, cfg, &scriptStrategy{plan: []domain.Decision{buy(), domain.Hold, sell()}})

	res, err := sim.Run(context.Background(), simBars(100, 100, 105, 103, 110, 108))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	a, b := Analyze(res), Analyze(res)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Analyze not idempotent:\n%+v\n%+v", a, b)
	}
}
