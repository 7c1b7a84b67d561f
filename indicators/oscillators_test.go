package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRSIStreaming(t *testing.T) {
	rsi := NewRSI(3)
	assert.Equal(t, "RSI(3)", rsi.Name())
	assert.Equal(t, 4, rsi.Warmup())

	// Changes: +1, +1, -1 → avg gain 2/3, avg loss 1/3 → RS 2 → RSI 66.67
	for _, b := range barsFromCloses(100, 101, 102, 101) {
		rsi.Update(b)
	}
	assert.True(t, rsi.Ready())
	assert.InDelta(t, 66.6667, rsi.Value(), 0.001)

	// Wilder smoothing: avgGain=(2/3*2+2)/3=10/9, avgLoss=(1/3*2)/3=2/9 → RS 5
	rsi.Update(barsFromCloses(103)[0])
	assert.InDelta(t, 83.3333, rsi.Value(), 0.001)
}

func TestRSIAllGains(t *testing.T) {
	rsi := NewRSI(3)
	for _, b := range barsFromCloses(1, 2, 3, 4, 5) {
		rsi.Update(b)
	}
	assert.True(t, rsi.Ready())
	assert.Equal(t, 100.0, rsi.Value())
}

func TestRSINotReadyDuringWarmup(t *testing.T) {
	rsi := NewRSI(14)
	for _, b := range barsFromCloses(1, 2, 3) {
		rsi.Update(b)
		assert.False(t, rsi.Ready())
		assert.Equal(t, 0.0, rsi.Value())
	}
}

func TestMACDStreaming(t *testing.T) {
	macd := NewMACD(2, 3, 2)
	assert.Equal(t, "MACD(2,3,2)", macd.Name())
	assert.Equal(t, 5, macd.Warmup())

	bars := barsFromCloses(10, 11, 12, 13)

	macd.Update(bars[0])
	macd.Update(bars[1])
	assert.False(t, macd.Ready())

	// Slow EMA seeds at bar 3: fast 11.5, slow 11 → line 0.5
	macd.Update(bars[2])
	assert.False(t, macd.Ready())
	assert.InDelta(t, 0.5, macd.Value(), 1e-9)

	// Signal seeds from the first two line values (0.5, 0.5).
	macd.Update(bars[3])
	assert.True(t, macd.Ready())
	assert.InDelta(t, 0.5, macd.Value(), 1e-9)
	assert.InDelta(t, 0.5, macd.Signal(), 1e-9)
	assert.InDelta(t, 0.0, macd.Histogram(), 1e-9)
}

func TestBollingerStreaming(t *testing.T) {
	bb := NewBollinger(3, 2)
	assert.Equal(t, "BB(3,2.0)", bb.Name())

	bars := barsFromCloses(10, 12, 14)
	bb.Update(bars[0])
	bb.Update(bars[1])
	assert.False(t, bb.Ready())

	bb.Update(bars[2])
	assert.True(t, bb.Ready())

	// mean 12, population stddev sqrt(8/3)
	assert.InDelta(t, 12.0, bb.Value(), 1e-9)
	assert.InDelta(t, 15.26599, bb.Upper(), 0.0001)
	assert.InDelta(t, 8.73401, bb.Lower(), 0.0001)

	bb.Reset()
	assert.False(t, bb.Ready())
}
