package indicators

import (
	"fmt"

	"marketsim/market"
)

// RSI is a streaming Wilder relative strength index. The first average
// gain/loss pair is a simple mean over the warmup window; later updates use
// Wilder smoothing: avg = (prev*(period-1) + current) / period.
type RSI struct {
	period   int
	avgGain  float64
	avgLoss  float64
	prev     float64
	havePrev bool
	count    int // number of price changes consumed
	sumGain  float64
	sumLoss  float64
}

// NewRSI creates an RSI with the given period.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI(%d)", r.period)
}

// Warmup is period+1 bars: the first bar only establishes the previous close.
func (r *RSI) Warmup() int {
	return r.period + 1
}

func (r *RSI) Reset() {
	r.avgGain = 0
	r.avgLoss = 0
	r.prev = 0
	r.havePrev = false
	r.count = 0
	r.sumGain = 0
	r.sumLoss = 0
}

func (r *RSI) Update(b market.Bar) {
	if !r.havePrev {
		r.prev = b.Close
		r.havePrev = true
		return
	}

	change := b.Close - r.prev
	r.prev = b.Close

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	r.count++
	switch {
	case r.count < r.period:
		r.sumGain += gain
		r.sumLoss += loss
	case r.count == r.period:
		r.sumGain += gain
		r.sumLoss += loss
		r.avgGain = r.sumGain / float64(r.period)
		r.avgLoss = r.sumLoss / float64(r.period)
	default:
		p := float64(r.period)
		r.avgGain = (r.avgGain*(p-1) + gain) / p
		r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	}
}

func (r *RSI) Ready() bool {
	return r.count >= r.period
}

// Value returns RSI in [0, 100]. With zero average loss the index pegs at 100.
func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}
