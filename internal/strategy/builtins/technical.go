package builtins

import (
	"saturn/internal/domain"
	"saturn/internal/indicator"
	"saturn/internal/strategy"
)

// Technical trades on a moving-average crossover confirmed by RSI. It buys
// when the fast MA is above the slow MA while RSI signals oversold, and sells
// when the fast MA drops below the slow MA or RSI signals overbought.
type Technical struct {
	params Params
}

var _ strategy.Strategy = (*Technical)(nil)

// NewTechnical constructs the technical-only rule.
func NewTechnical(p Params) (*Technical, error) {
	p, err := p.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Technical{params: p}, nil
}

func (s *Technical) Name() string { return "technical" }

func (s *Technical) Evaluate(snap indicator.Snapshot, sentiment int, pos domain.Position) domain.Decision {
	if pos.Flat() {
		if crossAbove(snap.FastMA, snap.SlowMA) && snap.RSI.LT(s.params.RSIOversold) {
			return domain.Decision{Action: domain.ActionBuy, Reason: "fast MA above slow MA, RSI oversold"}
		}
		return domain.Hold
	}
	if crossBelow(snap.FastMA, snap.SlowMA) {
		return domain.Decision{Action: domain.ActionSell, Reason: "fast MA below slow MA"}
	}
	if snap.RSI.GT(s.params.RSIOverbought) {
		return domain.Decision{Action: domain.ActionSell, Reason: "RSI overbought"}
	}
	return domain.Hold
}

// crossAbove reports a > b with both values defined.
func crossAbove(a, b indicator.Value) bool {
	return a.Defined && b.Defined && a.V > b.V
}

// crossBelow reports a < b with both values defined.
func crossBelow(a, b indicator.Value) bool {
	return a.Defined && b.Defined && a.V < b.V
}
