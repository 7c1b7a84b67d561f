package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"marketsim/market"
)

func barsFromCloses(closes ...float64) []market.Bar {
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 0, len(closes))
	for i, c := range closes {
		bars = append(bars, market.Bar{
			Time:   baseTime.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		})
	}
	return bars
}

func TestSimpleMAStreaming(t *testing.T) {
	bars := barsFromCloses(102, 105, 106, 108, 110)

	t.Run("basic functionality", func(t *testing.T) {
		ma := NewMA(3)
		assert.Equal(t, "MA(3)", ma.Name())
		assert.Equal(t, 3, ma.Warmup())
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())

		ma.Update(bars[0])
		assert.False(t, ma.Ready())

		ma.Update(bars[1])
		assert.False(t, ma.Ready())

		ma.Update(bars[2])
		assert.True(t, ma.Ready())
		assert.InDelta(t, (102.0+105.0+106.0)/3.0, ma.Value(), 0.001)

		// Window slides: only the last 3 closes count.
		ma.Update(bars[3])
		assert.InDelta(t, (105.0+106.0+108.0)/3.0, ma.Value(), 0.001)
	})

	t.Run("reset", func(t *testing.T) {
		ma := NewMA(2)
		ma.Update(bars[0])
		ma.Update(bars[1])
		assert.True(t, ma.Ready())

		ma.Reset()
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())
	})
}

func TestExponentialMAStreaming(t *testing.T) {
	bars := barsFromCloses(10, 11, 12, 13)

	ema := NewEMA(2)
	assert.Equal(t, "EMA(2)", ema.Name())
	assert.Equal(t, 2, ema.Warmup())

	ema.Update(bars[0])
	assert.False(t, ema.Ready())

	// Seeded with the SMA of the warmup window.
	ema.Update(bars[1])
	assert.True(t, ema.Ready())
	assert.InDelta(t, 10.5, ema.Value(), 1e-9)

	// (12 - 10.5) * 2/3 + 10.5
	ema.Update(bars[2])
	assert.InDelta(t, 11.5, ema.Value(), 1e-9)

	ema.Update(bars[3])
	assert.InDelta(t, 12.5, ema.Value(), 1e-9)

	ema.Reset()
	assert.False(t, ema.Ready())
}
