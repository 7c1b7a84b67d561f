package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"marketsim/market"
)

// barRecord is the on-disk Parquet schema for one bar. Precomputed
// indicators ride along in a map column so conversion is lossless.
type barRecord struct {
	Symbol     string             `parquet:"symbol"`
	Timestamp  int64              `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open       float64            `parquet:"open"`
	High       float64            `parquet:"high"`
	Low        float64            `parquet:"low"`
	Close      float64            `parquet:"close"`
	Volume     float64            `parquet:"volume"`
	Indicators map[string]float64 `parquet:"indicators"`
}

func toRecord(symbol string, b market.Bar) barRecord {
	return barRecord{
		Symbol:     symbol,
		Timestamp:  b.Time.UnixMilli(),
		Open:       b.Open,
		High:       b.High,
		Low:        b.Low,
		Close:      b.Close,
		Volume:     b.Volume,
		Indicators: b.Indicators,
	}
}

func (r barRecord) bar() market.Bar {
	b := market.Bar{
		Time:   time.UnixMilli(r.Timestamp).UTC(),
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}
	if len(r.Indicators) > 0 {
		b.Indicators = r.Indicators
	}
	return b
}

// ParquetStore keeps bar history as Parquet files partitioned by symbol and
// year: <DataDir>/daily/<SYMBOL>/<YYYY>.parquet. Rewrites merge with what is
// already on disk, deduplicating on timestamp.
type ParquetStore struct {
	DataDir string
}

func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// WriteBars merges the series into the per-year files it spans.
func (s *ParquetStore) WriteBars(ctx context.Context, series *market.Series) error {
	if err := series.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	groups := make(map[int][]barRecord)
	for _, b := range series.Bars {
		year := b.Time.UTC().Year()
		groups[year] = append(groups[year], toRecord(series.Symbol, b))
	}

	for year, records := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := s.barPath(series.Symbol, year)
		existing, _ := readParquetFile[barRecord](path)
		if err := writeParquetFile(path, mergeRecords(existing, records)); err != nil {
			return fmt.Errorf("store: writing %s/%d: %w", series.Symbol, year, err)
		}
	}
	return nil
}

// ReadBars loads one symbol's bars over [start, end], both inclusive. A zero
// start or end leaves that bound open.
func (s *ParquetStore) ReadBars(ctx context.Context, symbol string, start, end time.Time) (*market.Series, error) {
	dir := filepath.Join(s.DataDir, "daily", strings.ToUpper(symbol))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("store: no bar data for %s: %w", symbol, err)
	}

	var bars []market.Bar
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".parquet") {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSuffix(name, ".parquet"))
		if err != nil || !yearInRange(year, start, end) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := readParquetFile[barRecord](filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("store: reading %s/%s: %w", symbol, name, err)
		}
		for _, r := range records {
			if b := r.bar(); inRange(b.Time, start, end) {
				bars = append(bars, b)
			}
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	return market.NewSeries(symbol, bars)
}

// ListSymbols returns every symbol with bar data, sorted.
func (s *ParquetStore) ListSymbols(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "daily"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *ParquetStore) barPath(symbol string, year int) string {
	return filepath.Join(s.DataDir, "daily", strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

// LoadParquet reads a single Parquet bar file written by SaveParquet or
// ParquetStore.
func LoadParquet(path, symbol string) (*market.Series, error) {
	records, err := readParquetFile[barRecord](path)
	if err != nil {
		return nil, fmt.Errorf("store: reading %s: %w", path, err)
	}
	bars := make([]market.Bar, 0, len(records))
	for _, r := range records {
		bars = append(bars, r.bar())
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return market.NewSeries(symbol, bars)
}

// SaveParquet writes the whole series to one Parquet file.
func SaveParquet(path string, series *market.Series) error {
	if err := series.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	records := make([]barRecord, 0, series.Len())
	for _, b := range series.Bars {
		records = append(records, toRecord(series.Symbol, b))
	}
	if err := writeParquetFile(path, records); err != nil {
		return fmt.Errorf("store: writing %s: %w", path, err)
	}
	return nil
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeRecords deduplicates by timestamp, preferring incoming over existing.
func mergeRecords(existing, incoming []barRecord) []barRecord {
	seen := make(map[int64]barRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]barRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return merged
}

func inRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}

func yearInRange(year int, start, end time.Time) bool {
	if !start.IsZero() && year < start.UTC().Year() {
		return false
	}
	if !end.IsZero() && year > end.UTC().Year() {
		return false
	}
	return true
}
