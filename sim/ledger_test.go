package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, time.January, n, 0, 0, 0, 0, time.UTC)
}

func TestLedgerBuyOpensPosition(t *testing.T) {
	t.Parallel()

	l := NewLedger(10_000)
	err := l.ApplyFill(Fill{
		Symbol: "ABC", Side: Buy, Quantity: 10,
		Price: 100.05, Commission: 1.0005, Time: day(1),
	})
	require.NoError(t, err)

	assert.InDelta(t, 10_000-1001.5005, l.Cash(), 1e-9)

	pos, ok := l.Position("ABC")
	require.True(t, ok)
	assert.Equal(t, int64(10), pos.Quantity)
	assert.InDelta(t, 100.05, pos.AvgCost, 1e-9)
	assert.Equal(t, day(1), pos.OpenTime)
}

func TestLedgerWeightedAverageMerge(t *testing.T) {
	t.Parallel()

	l := NewLedger(10_000)
	require.NoError(t, l.ApplyFill(Fill{Symbol: "ABC", Side: Buy, Quantity: 10, Price: 100, Time: day(1)}))
	require.NoError(t, l.ApplyFill(Fill{Symbol: "ABC", Side: Buy, Quantity: 10, Price: 110, Time: day(2)}))

	pos, ok := l.Position("ABC")
	require.True(t, ok)
	assert.Equal(t, int64(20), pos.Quantity)
	assert.InDelta(t, 105.0, pos.AvgCost, 1e-9)
	assert.Equal(t, day(1), pos.OpenTime, "merging must keep the original open time")
	assert.InDelta(t, 10_000-1000-1100, l.Cash(), 1e-9)
}

func TestLedgerSellReducesThenRemoves(t *testing.T) {
	t.Parallel()

	l := NewLedger(10_000)
	require.NoError(t, l.ApplyFill(Fill{Symbol: "ABC", Side: Buy, Quantity: 10, Price: 100, Time: day(1)}))

	require.NoError(t, l.ApplyFill(Fill{Symbol: "ABC", Side: Sell, Quantity: 4, Price: 99.95, Commission: 0.3998, Time: day(2)}))
	pos, ok := l.Position("ABC")
	require.True(t, ok)
	assert.Equal(t, int64(6), pos.Quantity)
	assert.InDelta(t, 100.0, pos.AvgCost, 1e-9, "partial sells keep the average cost")

	require.NoError(t, l.ApplyFill(Fill{Symbol: "ABC", Side: Sell, Quantity: 6, Price: 99.95, Commission: 0.5997, Time: day(3)}))
	_, ok = l.Position("ABC")
	assert.False(t, ok, "selling the full quantity removes the position")
	assert.Empty(t, l.Positions())
}

func TestLedgerApplyFillErrors(t *testing.T) {
	t.Parallel()

	t.Run("buy beyond cash", func(t *testing.T) {
		t.Parallel()
		l := NewLedger(500)
		err := l.ApplyFill(Fill{Symbol: "ABC", Side: Buy, Quantity: 10, Price: 100, Time: day(1)})
		require.Error(t, err)
		assert.InDelta(t, 500.0, l.Cash(), 1e-9, "failed fills leave cash untouched")
	})

	t.Run("sell without position", func(t *testing.T) {
		t.Parallel()
		l := NewLedger(500)
		err := l.ApplyFill(Fill{Symbol: "ABC", Side: Sell, Quantity: 1, Price: 100, Time: day(1)})
		require.Error(t, err)
	})

	t.Run("sell more than held", func(t *testing.T) {
		t.Parallel()
		l := NewLedger(10_000)
		require.NoError(t, l.ApplyFill(Fill{Symbol: "ABC", Side: Buy, Quantity: 5, Price: 100, Time: day(1)}))
		err := l.ApplyFill(Fill{Symbol: "ABC", Side: Sell, Quantity: 6, Price: 100, Time: day(2)})
		require.Error(t, err)
		pos, ok := l.Position("ABC")
		require.True(t, ok)
		assert.Equal(t, int64(5), pos.Quantity)
	})

	t.Run("unknown side", func(t *testing.T) {
		t.Parallel()
		l := NewLedger(500)
		err := l.ApplyFill(Fill{Symbol: "ABC", Side: "HOLD", Quantity: 1, Price: 100, Time: day(1)})
		require.Error(t, err)
	})
}

func TestLedgerMarkToMarket(t *testing.T) {
	t.Parallel()

	l := NewLedger(10_000)
	require.NoError(t, l.ApplyFill(Fill{Symbol: "ABC", Side: Buy, Quantity: 10, Price: 100, Time: day(1)}))
	require.NoError(t, l.ApplyFill(Fill{Symbol: "XYZ", Side: Buy, Quantity: 5, Price: 50, Time: day(1)}))

	t.Run("prices all symbols", func(t *testing.T) {
		t.Parallel()
		total, stale := l.MarkToMarket(map[string]float64{"ABC": 110, "XYZ": 40})
		assert.InDelta(t, 10*110.0+5*40.0, total, 1e-9)
		assert.Empty(t, stale)
	})

	t.Run("missing price falls back to average cost", func(t *testing.T) {
		t.Parallel()
		total, stale := l.MarkToMarket(map[string]float64{"ABC": 110})
		assert.InDelta(t, 10*110.0+5*50.0, total, 1e-9)
		assert.Equal(t, []string{"XYZ"}, stale)
	})
}

func TestLedgerSnapshotInvariant(t *testing.T) {
	t.Parallel()

	l := NewLedger(10_000)
	require.NoError(t, l.ApplyFill(Fill{Symbol: "ABC", Side: Buy, Quantity: 10, Price: 100, Commission: 1, Time: day(1)}))

	snap := l.Snapshot(day(2), map[string]float64{"ABC": 103})
	assert.Equal(t, day(2), snap.Time)
	assert.InDelta(t, snap.Cash+snap.PositionValue, snap.TotalValue, 1e-9)
	assert.InDelta(t, 10_000-1001+1030, snap.TotalValue, 1e-9)
	assert.Empty(t, snap.Stale)
}

func TestLedgerViewIsCopy(t *testing.T) {
	t.Parallel()

	l := NewLedger(10_000)
	require.NoError(t, l.ApplyFill(Fill{Symbol: "ABC", Side: Buy, Quantity: 10, Price: 100, Time: day(1)}))

	view := l.View()
	v := view["ABC"]
	v.Quantity = 999
	view["ABC"] = v
	delete(view, "ABC")

	pos, ok := l.Position("ABC")
	require.True(t, ok)
	assert.Equal(t, int64(10), pos.Quantity)
}
