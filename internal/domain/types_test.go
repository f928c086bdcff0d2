package domain

import (
	"testing"
	"time"
)

func TestPositionFlat(t *testing.T) {
	var p Position
	if !p.Flat() {
		t.Error("zero-value Position should be flat")
	}

	p = Position{Qty: 100, EntryPrice: 185.5, EntryDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	if p.Flat() {
		t.Error("Position with Qty=100 should not be flat")
	}
}

func TestActionConstants(t *testing.T) {
	if ActionBuy != "buy" || ActionSell != "sell" || ActionHold != "hold" {
		t.Errorf("unexpected action values: %q %q %q", ActionBuy, ActionSell, ActionHold)
	}
	if Hold.Action != ActionHold {
		t.Errorf("Hold.Action = %q, want %q", Hold.Action, ActionHold)
	}
}

func TestBarZeroValue(t *testing.T) {
	bar := Bar{}
	if bar.Symbol != "" || !bar.Date.IsZero() {
		t.Error("zero-value Bar should have empty Symbol and zero Date")
	}
	if bar.Sentiment != 0 {
		t.Error("zero-value Bar should have neutral sentiment")
	}
}
