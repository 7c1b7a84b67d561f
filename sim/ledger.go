package sim

import (
	"fmt"
	"sort"
	"time"
)

// Position is a held quantity of one symbol at a weighted-average cost.
// Quantity is positive while held; reaching zero deletes the entry.
type Position struct {
	Symbol   string
	Quantity int64
	AvgCost  float64
	OpenTime time.Time
}

// Notional values the position at the given price.
func (p Position) Notional(price float64) float64 {
	return float64(p.Quantity) * price
}

// Snapshot is one equity-curve point: the portfolio valued at a moment in
// time. Stale lists symbols that had no price and were valued at average
// cost instead.
type Snapshot struct {
	Time          time.Time
	Cash          float64
	PositionValue float64
	TotalValue    float64
	Stale         []string
}

// Ledger is the sole owner of cash and position state. Only ApplyFill
// mutates it; every other method is a read.
type Ledger struct {
	cash      float64
	positions map[string]*Position
}

func NewLedger(cash float64) *Ledger {
	return &Ledger{
		cash:      cash,
		positions: make(map[string]*Position),
	}
}

func (l *Ledger) Cash() float64 { return l.cash }

// Position returns a copy of the position for symbol, if held.
func (l *Ledger) Position(symbol string) (Position, bool) {
	p, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns copies of all open positions sorted by symbol.
func (l *Ledger) Positions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// View returns a copy of the position map for read-only consumers such as
// strategy callbacks. Mutating the copy does not reach the ledger.
func (l *Ledger) View() map[string]Position {
	out := make(map[string]Position, len(l.positions))
	for sym, p := range l.positions {
		out[sym] = *p
	}
	return out
}

// MarkToMarket values all open positions against the price map. Symbols
// missing from the map fall back to their average cost, never to zero, and
// are reported in stale (sorted) so callers can flag the valuation.
func (l *Ledger) MarkToMarket(prices map[string]float64) (total float64, stale []string) {
	for sym, p := range l.positions {
		px, ok := prices[sym]
		if !ok {
			px = p.AvgCost
			stale = append(stale, sym)
		}
		total += p.Notional(px)
	}
	sort.Strings(stale)
	return total, stale
}

// Notionals returns each open position's value under the same pricing rules
// as MarkToMarket.
func (l *Ledger) Notionals(prices map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(l.positions))
	for sym, p := range l.positions {
		px, ok := prices[sym]
		if !ok {
			px = p.AvgCost
		}
		out[sym] = p.Notional(px)
	}
	return out
}

// Snapshot values the whole portfolio at t. The invariant
// cash + position value == total value holds for every snapshot.
func (l *Ledger) Snapshot(t time.Time, prices map[string]float64) Snapshot {
	value, stale := l.MarkToMarket(prices)
	return Snapshot{
		Time:          t,
		Cash:          l.cash,
		PositionValue: value,
		TotalValue:    l.cash + value,
		Stale:         stale,
	}
}

// ApplyFill mutates cash and positions for a validated fill. The executor
// pre-validates orders; errors here mean the fill itself is inconsistent
// with ledger state and indicate a caller bug, not a rejected order.
func (l *Ledger) ApplyFill(f Fill) error {
	switch f.Side {
	case Buy:
		cost := float64(f.Quantity)*f.Price + f.Commission
		if cost > l.cash {
			return fmt.Errorf("sim: fill cost %.4f exceeds cash %.4f", cost, l.cash)
		}
		l.cash -= cost

		p, ok := l.positions[f.Symbol]
		if !ok {
			l.positions[f.Symbol] = &Position{
				Symbol:   f.Symbol,
				Quantity: f.Quantity,
				AvgCost:  f.Price,
				OpenTime: f.Time,
			}
			return nil
		}
		// Weighted-average cost merge.
		oldQty := float64(p.Quantity)
		newQty := oldQty + float64(f.Quantity)
		p.AvgCost = (oldQty*p.AvgCost + float64(f.Quantity)*f.Price) / newQty
		p.Quantity += f.Quantity
		return nil

	case Sell:
		p, ok := l.positions[f.Symbol]
		if !ok || p.Quantity < f.Quantity {
			return fmt.Errorf("sim: fill sells %d %s but ledger holds %d",
				f.Quantity, f.Symbol, heldQuantity(p, ok))
		}
		l.cash += float64(f.Quantity)*f.Price - f.Commission
		p.Quantity -= f.Quantity
		if p.Quantity == 0 {
			delete(l.positions, f.Symbol)
		}
		return nil

	default:
		return fmt.Errorf("sim: fill has unknown side %q", f.Side)
	}
}

func heldQuantity(p *Position, ok bool) int64 {
	if !ok {
		return 0
	}
	return p.Quantity
}
