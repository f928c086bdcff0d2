// Package builtins provides the decision rules that ship with the saturn
// platform: a technical-only rule and two sentiment-gated variants.
package builtins

import (
	"saturn/internal/config"
	"saturn/internal/domain"
	"saturn/internal/indicator"
	"saturn/internal/strategy"
)

// Params holds the shared rule parameters: indicator periods plus the RSI
// thresholds. Zero-valued fields fall back to the defaults.
type Params struct {
	Indicator     indicator.Params
	RSIOversold   float64
	RSIOverbought float64
}

// DefaultParams returns the standard parameter set (RSI 30/70).
func DefaultParams() Params {
	return Params{
		Indicator:     indicator.DefaultParams(),
		RSIOversold:   30,
		RSIOverbought: 70,
	}
}

// withDefaults fills zero-valued fields and validates the thresholds.
func (p Params) withDefaults() (Params, error) {
	if p.RSIOversold == 0 {
		p.RSIOversold = 30
	}
	if p.RSIOverbought == 0 {
		p.RSIOverbought = 70
	}
	if p.RSIOversold < 0 || p.RSIOverbought > 100 {
		return p, &domain.InvalidConfigurationError{
			Field:  "rsi thresholds",
			Reason: "must lie within [0, 100]",
		}
	}
	if p.RSIOversold >= p.RSIOverbought {
		return p, &domain.InvalidConfigurationError{
			Field:  "rsi thresholds",
			Reason: "oversold must be below overbought",
		}
	}
	return p, nil
}

// FromConfig maps the YAML strategy section onto rule parameters.
// Zero-valued fields keep their defaults.
func FromConfig(sc config.StrategyConfig) Params {
	return Params{
		Indicator: indicator.Params{
			FastMA:     sc.FastMA,
			SlowMA:     sc.SlowMA,
			RSIPeriod:  sc.RSIPeriod,
			BollWindow: sc.BollWindow,
			BollDev:    sc.BollDev,
			EMAWindow:  sc.EMAWindow,
			MACDFast:   sc.MACDFast,
			MACDSlow:   sc.MACDSlow,
			MACDSignal: sc.MACDSignal,
			StochK:     sc.StochK,
			StochD:     sc.StochD,
		},
		RSIOversold:   sc.RSIOversold,
		RSIOverbought: sc.RSIOverbought,
	}
}

// New constructs a builtin strategy by name: "technical",
// "sentiment-basic", or "sentiment-advanced".
func New(name string, p Params) (strategy.Strategy, error) {
	switch name {
	case "technical":
		return NewTechnical(p)
	case "sentiment-basic":
		return NewSentimentBasic(p)
	case "sentiment-advanced":
		return NewSentimentAdvanced(p)
	default:
		return nil, &domain.InvalidConfigurationError{
			Field:  "strategy.name",
			Reason: "unknown strategy " + name,
		}
	}
}
