package indicators

import (
	"fmt"

	"marketsim/market"
)

// SimpleMA is a streaming simple moving average over closes.
type SimpleMA struct {
	period int
	closes []float64
}

// NewMA creates a simple moving average with the given period.
func NewMA(period int) *SimpleMA {
	return &SimpleMA{
		period: period,
		closes: make([]float64, 0, period),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("MA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	m.closes = m.closes[:0]
}

func (m *SimpleMA) Update(b market.Bar) {
	m.closes = append(m.closes, b.Close)
	// Keep only the last 'period' closes
	if len(m.closes) > m.period {
		m.closes = m.closes[1:]
	}
}

func (m *SimpleMA) Ready() bool {
	return len(m.closes) >= m.period
}

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}

	sum := 0.0
	for _, c := range m.closes {
		sum += c
	}
	return sum / float64(len(m.closes))
}

// ewma is a scalar exponential average used by ExponentialMA and the MACD
// signal line. Seeded with the SMA of the first 'period' values.
type ewma struct {
	period     int
	multiplier float64
	value      float64
	count      int
	warmupSum  float64
}

func newEWMA(period int) ewma {
	return ewma{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *ewma) reset() {
	e.value = 0
	e.count = 0
	e.warmupSum = 0
}

func (e *ewma) update(v float64) {
	if e.count < e.period {
		e.warmupSum += v
		e.count++
		if e.count == e.period {
			e.value = e.warmupSum / float64(e.period)
		}
		return
	}
	e.value = (v-e.value)*e.multiplier + e.value
}

func (e *ewma) ready() bool {
	return e.count >= e.period
}

// ExponentialMA is a streaming exponential moving average over closes.
type ExponentialMA struct {
	ewma
}

// NewEMA creates an exponential moving average with the given period.
// The first value is seeded with an SMA over the warmup window.
func NewEMA(period int) *ExponentialMA {
	return &ExponentialMA{ewma: newEWMA(period)}
}

func (e *ExponentialMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *ExponentialMA) Warmup() int {
	return e.period
}

func (e *ExponentialMA) Reset() {
	e.reset()
}

func (e *ExponentialMA) Update(b market.Bar) {
	e.update(b.Close)
}

func (e *ExponentialMA) Ready() bool {
	return e.ready()
}

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.value
}
