package indicators

import (
	"fmt"

	"marketsim/market"
)

// MACD is a streaming moving average convergence/divergence indicator.
// Value() is the MACD line (fast EMA - slow EMA); Signal() is an EMA of the
// MACD line and Histogram() their difference.
type MACD struct {
	fast   ewma
	slow   ewma
	signal ewma
}

// NewMACD creates a MACD with the usual three periods (12, 26, 9 by
// convention).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   newEWMA(fast),
		slow:   newEWMA(slow),
		signal: newEWMA(signal),
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", m.fast.period, m.slow.period, m.signal.period)
}

func (m *MACD) Warmup() int {
	return m.slow.period + m.signal.period
}

func (m *MACD) Reset() {
	m.fast.reset()
	m.slow.reset()
	m.signal.reset()
}

func (m *MACD) Update(b market.Bar) {
	m.fast.update(b.Close)
	m.slow.update(b.Close)
	if m.fast.ready() && m.slow.ready() {
		m.signal.update(m.fast.value - m.slow.value)
	}
}

func (m *MACD) Ready() bool {
	return m.signal.ready()
}

func (m *MACD) Value() float64 {
	if !m.fast.ready() || !m.slow.ready() {
		return 0
	}
	return m.fast.value - m.slow.value
}

func (m *MACD) Signal() float64 {
	if !m.Ready() {
		return 0
	}
	return m.signal.value
}

func (m *MACD) Histogram() float64 {
	if !m.Ready() {
		return 0
	}
	return m.Value() - m.Signal()
}
