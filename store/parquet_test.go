package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsim/market"
)

func TestParquetStorePath(t *testing.T) {
	t.Parallel()

	ps := NewParquetStore("/data")
	want := filepath.Join("/data", "daily", "ACME", "2024.parquet")
	assert.Equal(t, want, ps.barPath("acme", 2024), "symbol is upper-cased in the layout")
}

func TestParquetStoreWriteReadBars(t *testing.T) {
	t.Parallel()

	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	s := testSeries(t, "ACME", 10, 11, 12)
	s.Bars[2].SetIndicator("sma_2", 11.5)
	require.NoError(t, ps.WriteBars(ctx, s))

	got, err := ps.ReadBars(ctx, "ACME", time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "ACME", got.Symbol)
	require.Equal(t, 3, got.Len())
	for i := range s.Bars {
		assert.Equal(t, s.Bars[i].Time, got.Bars[i].Time, "bar %d", i)
		assert.Equal(t, s.Bars[i].Open, got.Bars[i].Open, "bar %d", i)
		assert.Equal(t, s.Bars[i].Close, got.Bars[i].Close, "bar %d", i)
		assert.Equal(t, s.Bars[i].Volume, got.Bars[i].Volume, "bar %d", i)
	}
	assert.Nil(t, got.Bars[0].Indicators)
	v, ok := got.Bars[2].Indicator("sma_2")
	require.True(t, ok, "indicator map must survive the round trip")
	assert.Equal(t, 11.5, v)
}

func TestParquetStoreYearPartitioning(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	s, err := market.NewSeries("ACME", []market.Bar{
		{Time: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), Open: 10, High: 11, Low: 9, Close: 10, Volume: 1},
		{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 10, High: 12, Low: 9, Close: 11, Volume: 1},
	})
	require.NoError(t, err)
	require.NoError(t, ps.WriteBars(ctx, s))

	for _, name := range []string{"2023.parquet", "2024.parquet"} {
		_, err := os.Stat(filepath.Join(dir, "daily", "ACME", name))
		require.NoError(t, err, "year file %s must exist", name)
	}

	all, err := ps.ReadBars(ctx, "ACME", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Len())

	only2024, err := ps.ReadBars(ctx, "ACME",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, only2024.Len())
	assert.Equal(t, 11.0, only2024.Bars[0].Close)
}

func TestParquetStoreMergeOnRewrite(t *testing.T) {
	t.Parallel()

	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, ps.WriteBars(ctx, testSeries(t, "ACME", 10, 11)))

	// Revise the second bar and extend by one; the overlap must not duplicate.
	revised, err := market.NewSeries("ACME", []market.Bar{
		{Time: day(1), Open: 99, High: 100, Low: 98, Close: 99, Volume: 5},
		{Time: day(2), Open: 12, High: 13, Low: 11, Close: 12, Volume: 1},
	})
	require.NoError(t, err)
	require.NoError(t, ps.WriteBars(ctx, revised))

	got, err := ps.ReadBars(ctx, "ACME", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	assert.Equal(t, 10.0, got.Bars[0].Close)
	assert.Equal(t, 99.0, got.Bars[1].Close, "rewrite wins on duplicate timestamps")
	assert.Equal(t, 12.0, got.Bars[2].Close)
}

func TestParquetStoreInclusiveWindow(t *testing.T) {
	t.Parallel()

	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, ps.WriteBars(ctx, testSeries(t, "ACME", 10, 11, 12)))

	got, err := ps.ReadBars(ctx, "ACME", day(1), day(1))
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, day(1), got.Bars[0].Time)
}

func TestParquetStoreEmptyWindow(t *testing.T) {
	t.Parallel()

	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, ps.WriteBars(ctx, testSeries(t, "ACME", 10)))

	_, err := ps.ReadBars(ctx, "ACME",
		time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no bars")
}

func TestParquetStoreMissingSymbol(t *testing.T) {
	t.Parallel()

	ps := NewParquetStore(t.TempDir())
	_, err := ps.ReadBars(context.Background(), "NOPE", time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no bar data for NOPE")
}

func TestParquetStoreListSymbols(t *testing.T) {
	t.Parallel()

	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	symbols, err := ps.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Nil(t, symbols, "empty store lists nothing")

	require.NoError(t, ps.WriteBars(ctx, testSeries(t, "msft", 10)))
	require.NoError(t, ps.WriteBars(ctx, testSeries(t, "acme", 10)))

	symbols, err = ps.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME", "MSFT"}, symbols)
}

func TestParquetStoreCancelledContext(t *testing.T) {
	t.Parallel()

	ps := NewParquetStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ps.WriteBars(ctx, testSeries(t, "ACME", 10))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSaveLoadParquetFile(t *testing.T) {
	t.Parallel()

	s := testSeries(t, "ACME", 10, 11)
	s.Bars[0].SetIndicator("rsi_14", 55.5)

	path := filepath.Join(t.TempDir(), "acme.parquet")
	require.NoError(t, SaveParquet(path, s))

	got, err := LoadParquet(path, "ACME")
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, day(0), got.Bars[0].Time)
	assert.Equal(t, 11.0, got.Bars[1].Close)
	v, ok := got.Bars[0].Indicator("rsi_14")
	require.True(t, ok)
	assert.Equal(t, 55.5, v)
}
