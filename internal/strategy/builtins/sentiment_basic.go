package builtins

import (
	"saturn/internal/domain"
	"saturn/internal/indicator"
	"saturn/internal/strategy"
)

// SentimentBasic is the technical rule with a sentiment gate on both legs:
// buys require positive news sentiment on the bar's day, sells require
// negative sentiment. Days without news carry a zero vote sum and pass
// neither gate.
type SentimentBasic struct {
	params Params
}

var _ strategy.Strategy = (*SentimentBasic)(nil)

// NewSentimentBasic constructs the sentiment-gated crossover rule.
func NewSentimentBasic(p Params) (*SentimentBasic, error) {
	p, err := p.withDefaults()
	if err != nil {
		return nil, err
	}
	return &SentimentBasic{params: p}, nil
}

func (s *SentimentBasic) Name() string { return "sentiment-basic" }

func (s *SentimentBasic) Evaluate(snap indicator.Snapshot, sentiment int, pos domain.Position) domain.Decision {
	if pos.Flat() {
		if sentiment > 0 && crossAbove(snap.FastMA, snap.SlowMA) && snap.RSI.LT(s.params.RSIOversold) {
			return domain.Decision{Action: domain.ActionBuy, Reason: "crossover with RSI oversold, positive sentiment"}
		}
		return domain.Hold
	}
	if sentiment < 0 && (crossBelow(snap.FastMA, snap.SlowMA) || snap.RSI.GT(s.params.RSIOverbought)) {
		return domain.Decision{Action: domain.ActionSell, Reason: "exit signal with negative sentiment"}
	}
	return domain.Hold
}
