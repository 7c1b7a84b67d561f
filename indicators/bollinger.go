package indicators

import (
	"fmt"
	"math"

	"marketsim/market"
)

// Bollinger tracks bands at K standard deviations around a simple moving
// average of closes. The deviation is the population deviation over the
// window, the common convention for these bands.
type Bollinger struct {
	period int
	k      float64
	closes []float64
}

// NewBollinger creates bands with the given period and width multiplier
// (20 and 2.0 by convention).
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{
		period: period,
		k:      k,
		closes: make([]float64, 0, period),
	}
}

func (b *Bollinger) Name() string {
	return fmt.Sprintf("BB(%d,%.1f)", b.period, b.k)
}

func (b *Bollinger) Warmup() int {
	return b.period
}

func (b *Bollinger) Reset() {
	b.closes = b.closes[:0]
}

func (b *Bollinger) Update(bar market.Bar) {
	b.closes = append(b.closes, bar.Close)
	if len(b.closes) > b.period {
		b.closes = b.closes[1:]
	}
}

func (b *Bollinger) Ready() bool {
	return len(b.closes) >= b.period
}

// Value returns the middle band (the moving average).
func (b *Bollinger) Value() float64 {
	if !b.Ready() {
		return 0
	}
	return b.mean()
}

func (b *Bollinger) Upper() float64 {
	if !b.Ready() {
		return 0
	}
	return b.mean() + b.k*b.stddev()
}

func (b *Bollinger) Lower() float64 {
	if !b.Ready() {
		return 0
	}
	return b.mean() - b.k*b.stddev()
}

func (b *Bollinger) mean() float64 {
	sum := 0.0
	for _, c := range b.closes {
		sum += c
	}
	return sum / float64(len(b.closes))
}

func (b *Bollinger) stddev() float64 {
	m := b.mean()
	var ss float64
	for _, c := range b.closes {
		d := c - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(b.closes)))
}
