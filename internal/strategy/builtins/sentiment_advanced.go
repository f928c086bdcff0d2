package builtins

import (
	"saturn/internal/domain"
	"saturn/internal/indicator"
	"saturn/internal/strategy"
)

// SentimentAdvanced combines five signals. Entry demands agreement from all
// of them; exit fires on any single one. The asymmetry is deliberate: the
// rule is slow to enter and quick to leave.
//
// Entry (all must hold): RSI oversold, MACD line positive, close above the
// lower Bollinger band, close above the EMA, positive sentiment.
//
// Exit (any suffices): RSI overbought, MACD line negative, close below the
// upper Bollinger band, close below the EMA, negative sentiment.
//
// Both sides can hold on the same bar (close between the bands satisfies
// the entry's band check and the exit's at once). The exit is checked
// first, so such a bar sells rather than buys; when the portfolio is flat
// the sell is a recorded no-op and no position opens.
type SentimentAdvanced struct {
	params Params
}

var _ strategy.Strategy = (*SentimentAdvanced)(nil)

// NewSentimentAdvanced constructs the multi-signal sentiment rule.
func NewSentimentAdvanced(p Params) (*SentimentAdvanced, error) {
	p, err := p.withDefaults()
	if err != nil {
		return nil, err
	}
	return &SentimentAdvanced{params: p}, nil
}

func (s *SentimentAdvanced) Name() string { return "sentiment-advanced" }

func (s *SentimentAdvanced) Evaluate(snap indicator.Snapshot, sentiment int, _ domain.Position) domain.Decision {
	switch {
	case snap.RSI.GT(s.params.RSIOverbought):
		return domain.Decision{Action: domain.ActionSell, Reason: "RSI overbought"}
	case snap.MACD.LT(0):
		return domain.Decision{Action: domain.ActionSell, Reason: "MACD negative"}
	case snap.BollUpper.GT(snap.Close):
		return domain.Decision{Action: domain.ActionSell, Reason: "close below upper Bollinger band"}
	case snap.EMA.GT(snap.Close):
		return domain.Decision{Action: domain.ActionSell, Reason: "close below EMA"}
	case sentiment < 0:
		return domain.Decision{Action: domain.ActionSell, Reason: "negative sentiment"}
	}
	if snap.RSI.LT(s.params.RSIOversold) &&
		snap.MACD.GT(0) &&
		snap.BollLower.LT(snap.Close) &&
		snap.EMA.LT(snap.Close) &&
		sentiment > 0 {
		return domain.Decision{Action: domain.ActionBuy, Reason: "all entry signals aligned"}
	}
	return domain.Hold
}
