// Package backtest runs a deterministic single-pass simulation of a decision
// rule over an aligned bar series and computes performance statistics from
// the recorded history.
package backtest

import (
	"math"
	"time"

	"saturn/internal/domain"
)

// Portfolio is the broker-side bookkeeper for one run: cash, the long-only
// position, closed trades, and rejected orders. Cash never goes negative;
// an order that does not fit is rejected, never partially filled.
type Portfolio struct {
	cash        float64
	rate        float64
	pos         domain.Position
	entryComm   float64
	entryReason string
	trades      []domain.Trade
	rejected    []domain.RejectedOrder
}

// NewPortfolio creates a portfolio with the given starting cash and
// per-leg commission rate.
func NewPortfolio(initialCash, commissionRate float64) *Portfolio {
	return &Portfolio{cash: initialCash, rate: commissionRate}
}

// Cash returns the available cash.
func (p *Portfolio) Cash() float64 { return p.cash }

// Position returns the current holding.
func (p *Portfolio) Position() domain.Position { return p.pos }

// Equity returns cash plus the position marked at the given price.
func (p *Portfolio) Equity(price float64) float64 {
	return p.cash + float64(p.pos.Qty)*price
}

// Trades returns the closed round trips in execution order.
func (p *Portfolio) Trades() []domain.Trade { return p.trades }

// Rejected returns the orders that could not be executed.
func (p *Portfolio) Rejected() []domain.RejectedOrder { return p.rejected }

// Execute applies a decision at the given execution price. Buys go all-in
// on the largest affordable quantity including commission; sells liquidate
// the entire position. Incompatible position state or insufficient cash
// records a rejection and leaves the portfolio untouched.
func (p *Portfolio) Execute(symbol string, d domain.Decision, date time.Time, price float64) {
	switch d.Action {
	case domain.ActionBuy:
		p.buy(d, date, price)
	case domain.ActionSell:
		p.sell(symbol, d, date, price)
	}
}

func (p *Portfolio) buy(d domain.Decision, date time.Time, price float64) {
	if !p.pos.Flat() {
		p.reject(date, domain.ActionBuy, "already_long")
		return
	}
	qty := int64(math.Floor(p.cash / (price * (1 + p.rate))))
	if qty <= 0 {
		p.reject(date, domain.ActionBuy, "insufficient_cash")
		return
	}
	commission := price * float64(qty) * p.rate
	p.cash -= price*float64(qty) + commission
	p.pos = domain.Position{Qty: qty, EntryDate: date, EntryPrice: price}
	p.entryComm = commission
	p.entryReason = d.Reason
}

func (p *Portfolio) sell(symbol string, d domain.Decision, date time.Time, price float64) {
	if p.pos.Flat() {
		p.reject(date, domain.ActionSell, "no_position")
		return
	}
	qty := p.pos.Qty
	commission := price * float64(qty) * p.rate
	p.cash += price*float64(qty) - commission

	totalComm := p.entryComm + commission
	p.trades = append(p.trades, domain.Trade{
		Symbol:      symbol,
		EntryDate:   p.pos.EntryDate,
		ExitDate:    date,
		EntryPrice:  p.pos.EntryPrice,
		ExitPrice:   price,
		Qty:         qty,
		Commission:  totalComm,
		PnL:         (price-p.pos.EntryPrice)*float64(qty) - totalComm,
		ReasonEntry: p.entryReason,
		ReasonExit:  d.Reason,
	})
	p.pos = domain.Position{}
	p.entryComm = 0
	p.entryReason = ""
}

func (p *Portfolio) reject(date time.Time, action domain.Action, reason string) {
	p.rejected = append(p.rejected, domain.RejectedOrder{
		Date:   date,
		Action: action,
		Reason: reason,
	})
}
