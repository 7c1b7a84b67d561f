package cmd

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsim/backtest"
	"marketsim/config"
	"marketsim/journal"
	"marketsim/metrics"
	"marketsim/store"
)

func writeBarsCSV(t *testing.T, path string, n int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("time,open,high,low,close,volume\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 100.0 + float64(i)
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,%d\n",
			start.AddDate(0, 0, i).Format(time.RFC3339), c-0.5, c+1, c-1.5, c, 1000+i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestSetParams(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	err := setParams(cfg, []string{"fast=15", "band=2.5", "trace=true", "tag=hello"})
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Strategy.Params["fast"])
	assert.Equal(t, 2.5, cfg.Strategy.Params["band"])
	assert.Equal(t, true, cfg.Strategy.Params["trace"])
	assert.Equal(t, "hello", cfg.Strategy.Params["tag"])

	t.Run("merges into existing params", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{}
		cfg.Strategy.Params = map[string]any{"slow": 30}
		require.NoError(t, setParams(cfg, []string{"fast=10"}))
		assert.Equal(t, 30, cfg.Strategy.Params["slow"])
		assert.Equal(t, 10, cfg.Strategy.Params["fast"])
	})

	t.Run("rejects pair without equals", func(t *testing.T) {
		t.Parallel()
		err := setParams(&config.Config{}, []string{"fast"})
		assert.ErrorContains(t, err, `bad --param "fast"`)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		t.Parallel()
		err := setParams(&config.Config{}, []string{"=5"})
		assert.ErrorContains(t, err, "bad --param")
	})
}

func TestParseTimeFlag(t *testing.T) {
	t.Parallel()

	got, err := parseTimeFlag("2024-03-05")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got, 0)

	got, err = parseTimeFlag("2024-03-05T10:30:00Z")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC), got, 0)

	_, err = parseTimeFlag("gibberish")
	assert.Error(t, err)
}

func TestFmtHelpers(t *testing.T) {
	t.Parallel()

	v := 0.1234
	inf := math.Inf(1)
	assert.Equal(t, "n/a", fmtPct(nil))
	assert.Equal(t, "12.34%", fmtPct(&v))
	assert.Equal(t, "n/a", fmtNum(nil))
	assert.Equal(t, "inf", fmtNum(&inf))
	assert.Equal(t, "0.12", fmtNum(&v))
}

func TestRankValue(t *testing.T) {
	t.Parallel()

	sharpe := 1.5
	res := &backtest.Result{Summary: metrics.Summary{
		Sharpe:      &sharpe,
		TotalReturn: 0.1,
		NetPnL:      500,
		MaxDrawdown: 0.2,
	}}

	tests := []struct {
		metric string
		want   float64
		ok     bool
	}{
		{"sharpe", 1.5, true},
		{"cagr", 0, false},
		{"win-rate", 0, false},
		{"return", 0.1, true},
		{"pnl", 500, true},
		{"drawdown", -0.2, true},
		{"bogus", 0, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.metric, func(t *testing.T) {
			t.Parallel()
			got, ok := rankValue(res, tt.metric)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestRiskSnapshot(t *testing.T) {
	t.Parallel()

	snap, err := riskSnapshot(50_000, []string{"acme=1000", "MSFT=2500.5"})
	require.NoError(t, err)
	assert.Equal(t, 50_000.0, snap.TotalValue)
	assert.Equal(t, map[string]float64{"ACME": 1000, "MSFT": 2500.5}, snap.Notional)

	snap, err = riskSnapshot(10, nil)
	require.NoError(t, err)
	assert.Nil(t, snap.Notional)

	_, err = riskSnapshot(1, []string{"ACME"})
	assert.ErrorContains(t, err, `bad --held "ACME"`)
	_, err = riskSnapshot(1, []string{"ACME=much"})
	assert.Error(t, err)
	_, err = riskSnapshot(1, []string{"=5"})
	assert.Error(t, err)
}

func TestOpenJournal(t *testing.T) {
	t.Parallel()

	t.Run("none and empty map to nop", func(t *testing.T) {
		t.Parallel()
		for _, driver := range []string{"", "none"} {
			j, err := openJournal(config.JournalConfig{Driver: driver})
			require.NoError(t, err)
			assert.Equal(t, journal.Nop{}, j)
		}
	})

	t.Run("csv", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		j, err := openJournal(config.JournalConfig{Driver: "csv", Path: dir})
		require.NoError(t, err)
		assert.IsType(t, &journal.CSV{}, j)
		require.NoError(t, j.Close())
		_, err = os.Stat(filepath.Join(dir, "runs.csv"))
		assert.NoError(t, err)
	})

	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "runs.db")
		j, err := openJournal(config.JournalConfig{Driver: "sqlite", Path: path})
		require.NoError(t, err)
		assert.IsType(t, &journal.SQLite{}, j)
		require.NoError(t, j.Close())
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()
		_, err := openJournal(config.JournalConfig{Driver: "bolt"})
		assert.ErrorContains(t, err, `unknown journal driver "bolt"`)
	})
}

// The command tests below share rootCmd and its flag variables, so they
// stay sequential.

func TestBacktestCommand(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "acme.csv")
	dbPath := filepath.Join(dir, "runs.db")
	orgPath := filepath.Join(dir, "run.org")
	writeBarsCSV(t, dataPath, 30)

	rootCmd.SetArgs([]string{
		"backtest",
		"-d", dataPath,
		"-s", "open-once",
		"-p", "quantity=10",
		"--journal", "sqlite",
		"--journal-path", dbPath,
		"--org", orgPath,
	})
	require.NoError(t, rootCmd.Execute())

	j, err := journal.NewSQLite(dbPath)
	require.NoError(t, err)
	defer j.Close()

	runs, err := j.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "open-once", runs[0].Strategy)
	assert.Equal(t, "ACME", runs[0].Symbol)
	assert.Equal(t, 30, runs[0].Bars)
	assert.Equal(t, 100_000.0, runs[0].InitialCapital)
	assert.Len(t, runs[0].RunID, 26)
	assert.JSONEq(t, `{"quantity":10}`, string(runs[0].Params))

	equity, err := j.ListEquityByRun(runs[0].RunID)
	require.NoError(t, err)
	assert.Len(t, equity, 31)

	org, err := os.ReadFile(orgPath)
	require.NoError(t, err)
	assert.Contains(t, string(org), "* BACKTEST: open-once ACME")
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "acme.csv")
	outPath := filepath.Join(dir, "acme.parquet")
	writeBarsCSV(t, inPath, 25)

	rootCmd.SetArgs([]string{
		"convert",
		"-i", inPath,
		"-o", outPath,
		"--enrich", "sma:5",
	})
	require.NoError(t, rootCmd.Execute())

	series, err := store.Load(outPath, "")
	require.NoError(t, err)
	assert.Equal(t, "ACME", series.Symbol)
	require.Equal(t, 25, series.Len())

	// Warmup bars carry no indicator; later ones do.
	assert.Nil(t, series.Bars[2].Indicators)
	assert.InDelta(t, 108.0, series.Bars[10].Indicators["sma_5"], 1e-9)
}
