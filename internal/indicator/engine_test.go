package indicator

import (
	"math"
	"testing"
	"time"

	"saturn/internal/domain"
)

func barsFromCloses(closes []float64) []domain.Bar {
	bars := make([]domain.Bar, len(closes))
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = domain.Bar{
			Symbol: "TEST",
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestValueComparisons(t *testing.T) {
	if (Value{}).GT(0) || (Value{}).LT(0) {
		t.Error("undefined Value must compare false against any threshold")
	}
	if !Defined(5).GT(4) || !Defined(3).LT(4) {
		t.Error("defined Value comparisons broken")
	}
	if Defined(4).GT(4) || Defined(4).LT(4) {
		t.Error("GT/LT must be strict")
	}
}

func TestSMAWarmupAndValue(t *testing.T) {
	e := NewEngine(Params{FastMA: 3, SlowMA: 5})

	var snaps []Snapshot
	for _, b := range barsFromCloses([]float64{1, 2, 3, 4, 5, 6}) {
		snaps = append(snaps, e.Update(b))
	}

	// Fast SMA(3): undefined for first 2 bars.
	for i := 0; i < 2; i++ {
		if snaps[i].FastMA.Defined {
			t.Errorf("bar %d: FastMA should be undefined during warm-up", i)
		}
	}
	if !almostEqual(snaps[2].FastMA.V, 2) {
		t.Errorf("FastMA at bar 2 = %v, want 2", snaps[2].FastMA.V)
	}
	if !almostEqual(snaps[5].FastMA.V, 5) {
		t.Errorf("FastMA at bar 5 = %v, want 5", snaps[5].FastMA.V)
	}

	// Slow SMA(5): defined from bar 4.
	if snaps[3].SlowMA.Defined {
		t.Error("SlowMA should be undefined at bar 3")
	}
	if !almostEqual(snaps[4].SlowMA.V, 3) {
		t.Errorf("SlowMA at bar 4 = %v, want 3", snaps[4].SlowMA.V)
	}
}

func TestSlowMAUndefinedForFirst49Bars(t *testing.T) {
	e := NewEngine(Params{SlowMA: 50})

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	for i, b := range barsFromCloses(closes) {
		snap := e.Update(b)
		if i < 49 && snap.SlowMA.Defined {
			t.Fatalf("bar %d: SlowMA(50) defined before 50 closes seen", i)
		}
		if i >= 49 && !snap.SlowMA.Defined {
			t.Fatalf("bar %d: SlowMA(50) should be defined", i)
		}
	}
}

func TestEMASeededWithSMA(t *testing.T) {
	e := NewEngine(Params{EMAWindow: 3})

	var last Snapshot
	for _, b := range barsFromCloses([]float64{1, 2, 3, 4}) {
		last = e.Update(b)
	}

	// Seed at bar 2: SMA(3) = 2. Then bar 3: 4*0.5 + 2*0.5 = 3 (k = 2/(3+1)).
	if !almostEqual(last.EMA.V, 3) {
		t.Errorf("EMA = %v, want 3", last.EMA.V)
	}
}

func TestRSIMonotonicSeries(t *testing.T) {
	e := NewEngine(Params{RSIPeriod: 14})

	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	for i, b := range barsFromCloses(closes) {
		snap := e.Update(b)
		if i < 14 {
			if snap.RSI.Defined {
				t.Fatalf("bar %d: RSI(14) defined before 15 closes seen", i)
			}
			continue
		}
		// All gains, no losses.
		if !almostEqual(snap.RSI.V, 100) {
			t.Fatalf("bar %d: RSI = %v, want 100 on all-gains series", i, snap.RSI.V)
		}
	}
}

func TestRSIBalancedSeries(t *testing.T) {
	e := NewEngine(Params{RSIPeriod: 2})

	// Diffs alternate +1 and -1, so average gain equals average loss.
	var last Snapshot
	for _, b := range barsFromCloses([]float64{10, 11, 10}) {
		last = e.Update(b)
	}
	if !almostEqual(last.RSI.V, 50) {
		t.Errorf("RSI = %v, want 50 for balanced gains/losses", last.RSI.V)
	}
}

func TestBollingerFlatSeries(t *testing.T) {
	e := NewEngine(Params{BollWindow: 5, BollDev: 2})

	var last Snapshot
	for _, b := range barsFromCloses([]float64{50, 50, 50, 50, 50}) {
		last = e.Update(b)
	}
	if !last.BollUpper.Defined || !last.BollLower.Defined {
		t.Fatal("Bollinger bands should be defined after 5 bars")
	}
	if !almostEqual(last.BollUpper.V, 50) || !almostEqual(last.BollLower.V, 50) {
		t.Errorf("flat series bands = [%v, %v], want [50, 50]", last.BollLower.V, last.BollUpper.V)
	}
}

func TestMACDWarmup(t *testing.T) {
	p := Params{MACDFast: 3, MACDSlow: 5, MACDSignal: 2}
	e := NewEngine(p)

	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 10 + float64(i)
	}

	for i, b := range barsFromCloses(closes) {
		snap := e.Update(b)
		// MACD line defined once the slow EMA is seeded (bar 4).
		if i < 4 && snap.MACD.Defined {
			t.Fatalf("bar %d: MACD defined before slow EMA warm-up", i)
		}
		if i >= 4 && !snap.MACD.Defined {
			t.Fatalf("bar %d: MACD should be defined", i)
		}
		// Signal line needs 2 more MACD values (bar 5).
		if i < 5 && snap.MACDSignal.Defined {
			t.Fatalf("bar %d: MACD signal defined too early", i)
		}
		if i >= 5 && !snap.MACDSignal.Defined {
			t.Fatalf("bar %d: MACD signal should be defined", i)
		}
	}
}

func TestStochastic(t *testing.T) {
	e := NewEngine(Params{StochK: 3, StochD: 2})

	bars := []domain.Bar{
		{High: 12, Low: 8, Close: 10},
		{High: 14, Low: 10, Close: 12},
		{High: 16, Low: 12, Close: 15},
		{High: 16, Low: 12, Close: 14},
	}

	var snaps []Snapshot
	for _, b := range bars {
		snaps = append(snaps, e.Update(b))
	}

	if snaps[1].StochK.Defined {
		t.Error("StochK should be undefined before 3 bars")
	}
	// Bar 2: hh=16, ll=8 → %K = 100*(15-8)/8 = 87.5.
	if !almostEqual(snaps[2].StochK.V, 87.5) {
		t.Errorf("StochK at bar 2 = %v, want 87.5", snaps[2].StochK.V)
	}
	// Bar 3: window is bars 1-3: hh=16, ll=10 → %K = 100*(14-10)/6 ≈ 66.667.
	wantK := 100 * (14.0 - 10.0) / 6.0
	if !almostEqual(snaps[3].StochK.V, wantK) {
		t.Errorf("StochK at bar 3 = %v, want %v", snaps[3].StochK.V, wantK)
	}
	// %D = SMA(%K, 2) over bars 2-3.
	wantD := (87.5 + wantK) / 2
	if !almostEqual(snaps[3].StochD.V, wantD) {
		t.Errorf("StochD at bar 3 = %v, want %v", snaps[3].StochD.V, wantD)
	}
}

func TestWarmupDefaults(t *testing.T) {
	// With defaults the slow MA (50) dominates every other warm-up.
	if got := DefaultParams().Warmup(); got != 50 {
		t.Errorf("Warmup() = %d, want 50", got)
	}

	// MACD dominates when the slow MA is short: 26 + 9 - 1 = 34.
	p := Params{SlowMA: 10}
	if got := p.Warmup(); got != 34 {
		t.Errorf("Warmup() = %d, want 34", got)
	}
}

func TestRollingWindowEviction(t *testing.T) {
	w := newRollingWindow(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w.Push(v)
	}
	if !almostEqual(w.Mean(), 4) {
		t.Errorf("Mean = %v, want 4 after eviction", w.Mean())
	}
}
