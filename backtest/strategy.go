package backtest

import (
	"time"

	"marketsim/market"
	"marketsim/sim"
)

// Context is the engine state a strategy may read when deciding on a bar.
// Positions is a copy; mutating it does not reach the ledger.
type Context struct {
	Symbol    string
	Index     int
	Time      time.Time
	Cash      float64
	Positions map[string]sim.Position
}

// Position is a convenience lookup for the series symbol.
func (c *Context) Position() (sim.Position, bool) {
	p, ok := c.Positions[c.Symbol]
	return p, ok
}

// Strategy decides on one bar at a time. OnBar sees bars in ascending
// timestamp order and only ever the current one; anything older it must
// remember itself. Returning a nil signal holds. A returned error aborts
// the whole run.
//
// Implementations must be deterministic for a fixed bar sequence: no I/O,
// no wall-clock reads, and any randomness seeded per run.
type Strategy interface {
	Name() string

	// Reset clears accumulated state so the instance can replay a series
	// from the first bar.
	Reset()

	OnBar(ctx *Context, bar market.Bar) (*sim.Signal, error)
}
