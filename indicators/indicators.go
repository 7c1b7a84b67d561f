// Package indicators provides streaming technical indicators and a
// precompute pass that attaches their values to bar series.
package indicators

import "marketsim/market"

// Indicator computes a single streaming value from bars.
// It is deterministic: the same update sequence always yields the same values.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "RSI(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar and updates internal state.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value. Callers should check
	// Ready() first; before warmup it returns 0.
	Value() float64
}
