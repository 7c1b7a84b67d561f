package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsim/sim"
)

func TestSMACrossRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewSMACross(CrossoverParams{Fast: 2, Slow: 3, Quantity: 5})
	require.NoError(t, err)

	// Flat start, rally into a golden cross at bar 3, collapse into a death
	// cross at bar 5.
	signals := walk(t, s, []float64{10, 10, 10, 13, 14, 5})

	require.Len(t, signals, 2)

	buy := signals[3]
	require.NotNil(t, buy, "golden cross must fire on bar 3")
	assert.Equal(t, sim.Buy, buy.Side)
	assert.Equal(t, int64(5), buy.Quantity)

	sell := signals[5]
	require.NotNil(t, sell, "death cross must fire on bar 5")
	assert.Equal(t, sim.Sell, sell.Side)
	assert.Equal(t, int64(5), sell.Quantity, "the whole position closes")
}

func TestSMACrossNoEntryWithoutCross(t *testing.T) {
	t.Parallel()

	s, err := NewSMACross(CrossoverParams{Fast: 2, Slow: 3, Quantity: 5})
	require.NoError(t, err)

	// The fast average stays above the slow one for the entire run; a
	// standing condition is not a cross.
	signals := walk(t, s, []float64{10, 11, 12, 13, 14, 15})
	assert.Empty(t, signals)
}

func TestSMACrossDeathCrossWhileFlatHolds(t *testing.T) {
	t.Parallel()

	s, err := NewSMACross(CrossoverParams{Fast: 2, Slow: 3, Quantity: 5})
	require.NoError(t, err)

	signals := walk(t, s, []float64{20, 20, 20, 10, 5})
	assert.Empty(t, signals, "nothing to sell on a death cross without a position")
}

func TestEMACrossRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewEMACross(CrossoverParams{Fast: 2, Slow: 3, Quantity: 7})
	require.NoError(t, err)

	signals := walk(t, s, []float64{10, 10, 10, 16, 4})

	require.Len(t, signals, 2)
	require.NotNil(t, signals[3])
	assert.Equal(t, sim.Buy, signals[3].Side)
	require.NotNil(t, signals[4])
	assert.Equal(t, sim.Sell, signals[4].Side)
	assert.Equal(t, int64(7), signals[4].Quantity)
}

func TestCrossoverResetReplays(t *testing.T) {
	t.Parallel()

	s, err := NewSMACross(CrossoverParams{Fast: 2, Slow: 3, Quantity: 5})
	require.NoError(t, err)

	closes := []float64{10, 10, 10, 13, 14, 5}
	first := walk(t, s, closes)

	s.Reset()
	second := walk(t, s, closes)

	require.Len(t, second, len(first), "a reset strategy must replay identically")
	for i, sig := range first {
		require.NotNil(t, second[i])
		assert.Equal(t, sig.Side, second[i].Side)
		assert.Equal(t, sig.Quantity, second[i].Quantity)
	}
}
