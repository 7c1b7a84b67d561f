package sim

import "time"

// Trade is a closed round trip: a SELL that reduced or removed a position.
// Records are append-only and immutable once created.
//
// PnL is (execution price - weighted-average cost) * quantity. Commission is
// NOT netted out of PnL; it reduces cash proceeds and is tracked separately
// here, so PnL stays comparable across runs with different commission
// settings.
type Trade struct {
	ID         string
	Symbol     string
	Side       Side
	Quantity   int64
	EntryPrice float64 // weighted-average cost at exit time
	ExitPrice  float64 // execution price after slippage
	EntryTime  time.Time
	ExitTime   time.Time
	PnL        float64
	PnLPct     float64 // (exit - entry) / entry
	Commission float64
}
