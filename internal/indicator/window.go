// Package indicator incrementally computes technical indicators over a bar
// stream. All state updates are O(1) amortized per bar: fixed-capacity ring
// buffers carry running sums, and rolling extrema use monotonic deques.
package indicator

import "math"

// rollingWindow is a fixed-capacity ring buffer over float64 values that
// maintains running sum and sum-of-squares for O(1) mean and stddev.
type rollingWindow struct {
	buf   []float64
	head  int
	count int
	sum   float64
	sumSq float64
}

func newRollingWindow(size int) *rollingWindow {
	return &rollingWindow{buf: make([]float64, size)}
}

// Push appends v, evicting the oldest value once the window is full.
func (w *rollingWindow) Push(v float64) {
	if w.count == len(w.buf) {
		old := w.buf[w.head]
		w.sum -= old
		w.sumSq -= old * old
	} else {
		w.count++
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	w.sum += v
	w.sumSq += v * v
}

// Full reports whether the window has seen at least its capacity of values.
func (w *rollingWindow) Full() bool {
	return w.count == len(w.buf)
}

// Mean returns the arithmetic mean of the windowed values.
func (w *rollingWindow) Mean() float64 {
	return w.sum / float64(w.count)
}

// StdDev returns the population standard deviation of the windowed values.
func (w *rollingWindow) StdDev() float64 {
	n := float64(w.count)
	variance := w.sumSq/n - (w.sum/n)*(w.sum/n)
	if variance < 0 {
		// Guard against tiny negative values from float cancellation.
		variance = 0
	}
	return math.Sqrt(variance)
}

// extremaWindow tracks the lowest low and highest high over the last `size`
// bars using monotonic deques. Each value is pushed and popped at most once,
// so updates are O(1) amortized.
type extremaWindow struct {
	size int
	seq  int
	minq []extremaEntry // lows, increasing
	maxq []extremaEntry // highs, decreasing
}

type extremaEntry struct {
	seq int
	v   float64
}

func newExtremaWindow(size int) *extremaWindow {
	return &extremaWindow{size: size}
}

// PushHighLow appends one bar's high and low and expires entries that fell
// out of the window.
func (w *extremaWindow) PushHighLow(high, low float64) {
	for len(w.minq) > 0 && w.minq[len(w.minq)-1].v >= low {
		w.minq = w.minq[:len(w.minq)-1]
	}
	w.minq = append(w.minq, extremaEntry{w.seq, low})

	for len(w.maxq) > 0 && w.maxq[len(w.maxq)-1].v <= high {
		w.maxq = w.maxq[:len(w.maxq)-1]
	}
	w.maxq = append(w.maxq, extremaEntry{w.seq, high})

	w.seq++
	cutoff := w.seq - w.size
	if w.minq[0].seq < cutoff {
		w.minq = w.minq[1:]
	}
	if w.maxq[0].seq < cutoff {
		w.maxq = w.maxq[1:]
	}
}

// Full reports whether a complete window of bars has been seen.
func (w *extremaWindow) Full() bool {
	return w.seq >= w.size
}

// Min returns the lowest low in the window.
func (w *extremaWindow) Min() float64 { return w.minq[0].v }

// Max returns the highest high in the window.
func (w *extremaWindow) Max() float64 { return w.maxq[0].v }

// emaState computes an exponential moving average seeded with the simple
// moving average of the first `period` values, then the usual recurrence
// ema = v*k + ema*(1-k) with k = 2/(period+1).
type emaState struct {
	period  int
	k       float64
	seedSum float64
	seen    int
	value   float64
	ready   bool
}

func newEMAState(period int) *emaState {
	return &emaState{period: period, k: 2.0 / float64(period+1)}
}

func (e *emaState) Push(v float64) {
	if e.ready {
		e.value = v*e.k + e.value*(1-e.k)
		return
	}
	e.seen++
	e.seedSum += v
	if e.seen == e.period {
		e.value = e.seedSum / float64(e.period)
		e.ready = true
	}
}

func (e *emaState) Value() Value {
	if !e.ready {
		return Value{}
	}
	return Defined(e.value)
}

// rsiState computes the Relative Strength Index with Wilder smoothing.
// Defined after period+1 closes (period price changes) have been seen.
type rsiState struct {
	period   int
	prev     float64
	diffs    int
	sumGain  float64
	sumLoss  float64
	avgGain  float64
	avgLoss  float64
	havePrev bool
}

func newRSIState(period int) *rsiState {
	return &rsiState{period: period}
}

func (r *rsiState) Push(close float64) {
	if !r.havePrev {
		r.prev = close
		r.havePrev = true
		return
	}

	diff := close - r.prev
	r.prev = close
	gain, loss := 0.0, 0.0
	if diff > 0 {
		gain = diff
	} else {
		loss = -diff
	}

	r.diffs++
	switch {
	case r.diffs < r.period:
		r.sumGain += gain
		r.sumLoss += loss
	case r.diffs == r.period:
		r.sumGain += gain
		r.sumLoss += loss
		r.avgGain = r.sumGain / float64(r.period)
		r.avgLoss = r.sumLoss / float64(r.period)
	default:
		p := float64(r.period)
		r.avgGain = (r.avgGain*(p-1) + gain) / p
		r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	}
}

func (r *rsiState) Value() Value {
	if r.diffs < r.period {
		return Value{}
	}
	if r.avgLoss == 0 {
		return Defined(100)
	}
	rs := r.avgGain / r.avgLoss
	return Defined(100 - 100/(1+rs))
}
