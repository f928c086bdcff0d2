// Package domain defines the core types shared across the saturn platform:
// bars, trading decisions, positions, trades, and portfolio state.
package domain

import "time"

// Bar is one trading day of OHLCV data for a symbol, with the aligned
// news-sentiment signal for that day. A Bar is immutable once constructed.
type Bar struct {
	Symbol    string
	Date      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Sentiment int // sum of per-article polarity votes for the day; 0 when no news
}

// Action is the output of a strategy evaluation.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Decision is what a strategy emits for a single bar. Reason is a short
// machine-friendly tag recorded in the trade log (e.g. "ma_cross_rsi").
type Decision struct {
	Action Action
	Reason string
}

// Hold is the neutral decision.
var Hold = Decision{Action: ActionHold}

// Position is a long-only holding. Quantity is zero when flat.
type Position struct {
	Qty        int64
	EntryDate  time.Time
	EntryPrice float64 // average entry price
}

// Flat reports whether the position is empty.
func (p Position) Flat() bool { return p.Qty == 0 }

// Trade records one closed round trip. Created when a position is fully
// liquidated; immutable afterwards.
type Trade struct {
	Symbol      string
	EntryDate   time.Time
	ExitDate    time.Time
	EntryPrice  float64
	ExitPrice   float64
	Qty         int64
	Commission  float64 // total commission paid on both legs
	PnL         float64 // net of commission
	ReasonEntry string
	ReasonExit  string
}

// EquityPoint is one sample of the equity curve: total portfolio value
// (cash plus position marked at the bar close) after processing a bar.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}

// RejectedOrder records a decision that could not be executed. Rejections
// are informational, never fatal.
type RejectedOrder struct {
	Date   time.Time
	Action Action
	Reason string // "insufficient_cash", "already_long", "no_position"
}

// PortfolioState is the broker-side view of a run at a point in time.
type PortfolioState struct {
	Cash     float64
	Position Position
	Equity   float64 // Cash + Position.Qty * last close
}
