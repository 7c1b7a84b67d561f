package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"marketsim/market"
)

// baseColumns is the required CSV header prefix. Columns after volume are
// loaded into Bar.Indicators keyed by their header name.
var baseColumns = []string{"time", "open", "high", "low", "close", "volume"}

// LoadCSV reads a bar series from a CSV file. Paths ending in .xz are
// decompressed transparently.
func LoadCSV(path, symbol string) (*market.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("store: opening xz stream %s: %w", path, err)
		}
		r = xr
	}

	series, err := ReadCSV(r, symbol)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", path, err)
	}
	return series, nil
}

// ReadCSV parses bar rows from r. The header row is required:
//
//	time,open,high,low,close,volume[,indicator...]
//
// Timestamps are RFC3339 or bare 2006-01-02 dates. Blank indicator cells are
// skipped; blank lines are ignored.
func ReadCSV(r io.Reader, symbol string) (*market.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input")
	}
	if err != nil {
		return nil, err
	}
	extras, err := checkHeader(header)
	if err != nil {
		return nil, err
	}

	var bars []market.Bar
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) < len(baseColumns) {
			return nil, fmt.Errorf("line %d: want at least %d columns, got %d", line, len(baseColumns), len(row))
		}

		bar, err := parseBarRow(row, extras)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	return market.NewSeries(symbol, bars)
}

func checkHeader(header []string) ([]string, error) {
	if len(header) < len(baseColumns) {
		return nil, fmt.Errorf("header %q: want at least %s",
			strings.Join(header, ","), strings.Join(baseColumns, ","))
	}
	first := strings.TrimSpace(header[0])
	if !strings.EqualFold(first, "time") && !strings.EqualFold(first, "timestamp") &&
		!strings.EqualFold(first, "date") {
		return nil, fmt.Errorf("header: first column must be time, got %q", first)
	}
	for i, want := range baseColumns[1:] {
		if got := strings.TrimSpace(header[i+1]); !strings.EqualFold(got, want) {
			return nil, fmt.Errorf("header column %d: want %q, got %q", i+1, want, got)
		}
	}

	extras := make([]string, 0, len(header)-len(baseColumns))
	for _, h := range header[len(baseColumns):] {
		name := strings.TrimSpace(h)
		if name == "" {
			return nil, fmt.Errorf("header: blank indicator column name")
		}
		extras = append(extras, name)
	}
	return extras, nil
}

func parseBarRow(row, extras []string) (market.Bar, error) {
	t, err := parseBarTime(strings.TrimSpace(row[0]))
	if err != nil {
		return market.Bar{}, err
	}

	var vals [5]float64
	for i, name := range baseColumns[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("bad %s %q: %w", name, row[i+1], err)
		}
		vals[i] = v
	}
	bar := market.Bar{
		Time: t, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4],
	}

	for i, name := range extras {
		col := len(baseColumns) + i
		if col >= len(row) {
			break
		}
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("bad %s %q: %w", name, cell, err)
		}
		bar.SetIndicator(name, v)
	}
	return bar, nil
}

func parseBarTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// SaveCSV writes a series as CSV: the base columns plus one column per
// indicator key present anywhere in the series, sorted. Bars missing a key
// get an empty cell. Paths ending in .xz are compressed.
func SaveCSV(path string, series *market.Series) error {
	if err := series.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	var w io.Writer = f
	var xw *xz.Writer
	if strings.HasSuffix(path, ".xz") {
		xw, err = xz.NewWriter(f)
		if err != nil {
			f.Close()
			return fmt.Errorf("store: opening xz stream %s: %w", path, err)
		}
		w = xw
	}

	err = writeCSV(w, series)
	if xw != nil {
		if cerr := xw.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("store: writing %s: %w", path, err)
	}
	return nil
}

func writeCSV(w io.Writer, series *market.Series) error {
	keys := indicatorKeys(series)
	cw := csv.NewWriter(w)

	header := append(append([]string{}, baseColumns...), keys...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for _, b := range series.Bars {
		row = row[:0]
		row = append(row,
			b.Time.UTC().Format(time.RFC3339),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
		)
		for _, k := range keys {
			if v, ok := b.Indicator(k); ok {
				row = append(row, formatFloat(v))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func indicatorKeys(series *market.Series) []string {
	seen := map[string]bool{}
	for _, b := range series.Bars {
		for k := range b.Indicators {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
