package indicator

import (
	"saturn/internal/domain"
)

// Value is an indicator output that may not exist yet because the warm-up
// history is insufficient. Strategies must treat an undefined Value as
// neutral and never trade on it.
type Value struct {
	V       float64
	Defined bool
}

// Defined wraps v as a defined Value.
func Defined(v float64) Value { return Value{V: v, Defined: true} }

// GT reports v > x, false when v is undefined.
func (v Value) GT(x float64) bool { return v.Defined && v.V > x }

// LT reports v < x, false when v is undefined.
func (v Value) LT(x float64) bool { return v.Defined && v.V < x }

// Snapshot holds the per-bar indicator values. Fields are undefined until
// the respective indicator's warm-up period has elapsed. A Snapshot is a
// pure function of the bar history up to and including the current bar.
type Snapshot struct {
	Close float64

	FastMA     Value
	SlowMA     Value
	RSI        Value
	MACD       Value
	MACDSignal Value
	BollUpper  Value
	BollLower  Value
	EMA        Value
	StochK     Value
	StochD     Value
}

// Params holds the indicator periods. Defaults follow DefaultParams.
type Params struct {
	FastMA     int
	SlowMA     int
	RSIPeriod  int
	BollWindow int
	BollDev    float64
	EMAWindow  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	StochK     int
	StochD     int
}

// DefaultParams returns the standard parameter set.
func DefaultParams() Params {
	return Params{
		FastMA:     20,
		SlowMA:     50,
		RSIPeriod:  14,
		BollWindow: 20,
		BollDev:    2.0,
		EMAWindow:  20,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		StochK:     14,
		StochD:     3,
	}
}

// withDefaults fills zero-valued fields from DefaultParams.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.FastMA <= 0 {
		p.FastMA = d.FastMA
	}
	if p.SlowMA <= 0 {
		p.SlowMA = d.SlowMA
	}
	if p.RSIPeriod <= 0 {
		p.RSIPeriod = d.RSIPeriod
	}
	if p.BollWindow <= 0 {
		p.BollWindow = d.BollWindow
	}
	if p.BollDev <= 0 {
		p.BollDev = d.BollDev
	}
	if p.EMAWindow <= 0 {
		p.EMAWindow = d.EMAWindow
	}
	if p.MACDFast <= 0 {
		p.MACDFast = d.MACDFast
	}
	if p.MACDSlow <= 0 {
		p.MACDSlow = d.MACDSlow
	}
	if p.MACDSignal <= 0 {
		p.MACDSignal = d.MACDSignal
	}
	if p.StochK <= 0 {
		p.StochK = d.StochK
	}
	if p.StochD <= 0 {
		p.StochD = d.StochD
	}
	return p
}

// Warmup returns the number of bars needed before every indicator in the
// set is defined.
func (p Params) Warmup() int {
	p = p.withDefaults()
	warmup := p.SlowMA
	for _, w := range []int{
		p.FastMA,
		p.RSIPeriod + 1,
		p.BollWindow,
		p.EMAWindow,
		p.MACDSlow + p.MACDSignal - 1,
		p.StochK + p.StochD - 1,
	} {
		if w > warmup {
			warmup = w
		}
	}
	return warmup
}

// Engine owns the rolling state for every indicator. One Engine serves one
// bar stream; feed bars in date order via Update.
type Engine struct {
	params Params

	fast  *rollingWindow
	slow  *rollingWindow
	boll  *rollingWindow
	rsi   *rsiState
	ema   *emaState
	macd1 *emaState // fast EMA of close
	macd2 *emaState // slow EMA of close
	sig   *emaState // EMA of the MACD line
	hilo  *extremaWindow
	stoch *rollingWindow // SMA over %K values
}

// NewEngine creates an Engine for the given parameter set. Zero-valued
// periods fall back to the defaults.
func NewEngine(params Params) *Engine {
	p := params.withDefaults()
	return &Engine{
		params: p,
		fast:   newRollingWindow(p.FastMA),
		slow:   newRollingWindow(p.SlowMA),
		boll:   newRollingWindow(p.BollWindow),
		rsi:    newRSIState(p.RSIPeriod),
		ema:    newEMAState(p.EMAWindow),
		macd1:  newEMAState(p.MACDFast),
		macd2:  newEMAState(p.MACDSlow),
		sig:    newEMAState(p.MACDSignal),
		hilo:   newExtremaWindow(p.StochK),
		stoch:  newRollingWindow(p.StochD),
	}
}

// Params returns the effective (defaulted) parameter set.
func (e *Engine) Params() Params { return e.params }

// Warmup returns the warm-up bar count for this engine's parameters.
func (e *Engine) Warmup() int { return e.params.Warmup() }

// Update consumes one bar and returns the indicator snapshot for it.
func (e *Engine) Update(bar domain.Bar) Snapshot {
	snap := Snapshot{Close: bar.Close}

	e.fast.Push(bar.Close)
	if e.fast.Full() {
		snap.FastMA = Defined(e.fast.Mean())
	}
	e.slow.Push(bar.Close)
	if e.slow.Full() {
		snap.SlowMA = Defined(e.slow.Mean())
	}

	e.boll.Push(bar.Close)
	if e.boll.Full() {
		mid := e.boll.Mean()
		dev := e.params.BollDev * e.boll.StdDev()
		snap.BollUpper = Defined(mid + dev)
		snap.BollLower = Defined(mid - dev)
	}

	e.rsi.Push(bar.Close)
	snap.RSI = e.rsi.Value()

	e.ema.Push(bar.Close)
	snap.EMA = e.ema.Value()

	e.macd1.Push(bar.Close)
	e.macd2.Push(bar.Close)
	if f, s := e.macd1.Value(), e.macd2.Value(); f.Defined && s.Defined {
		line := f.V - s.V
		snap.MACD = Defined(line)
		e.sig.Push(line)
		snap.MACDSignal = e.sig.Value()
	}

	// Stochastic %K uses the high/low range; %D is an SMA over %K.
	e.hilo.PushHighLow(bar.High, bar.Low)
	if e.hilo.Full() {
		hh, ll := e.hilo.Max(), e.hilo.Min()
		k := 50.0 // flat range: neither overbought nor oversold
		if hh > ll {
			k = 100 * (bar.Close - ll) / (hh - ll)
		}
		snap.StochK = Defined(k)
		e.stoch.Push(k)
		if e.stoch.Full() {
			snap.StochD = Defined(e.stoch.Mean())
		}
	}

	return snap
}
