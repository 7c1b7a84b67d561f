package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xyproto/unzip"

	"marketsim/market"
)

// LoadZip extracts a zip archive to a scratch directory and merges every CSV
// member (.csv or .csv.xz) into one series. Members are visited in sorted
// path order; on duplicate timestamps the later member wins.
func LoadZip(path, symbol string) (*market.Series, error) {
	tmp, err := os.MkdirTemp("", "marketsim-zip-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	if err := unzip.Extract(path, tmp); err != nil {
		return nil, fmt.Errorf("store: extracting %s: %w", path, err)
	}

	var members []string
	err = filepath.WalkDir(tmp, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && (strings.HasSuffix(p, ".csv") || strings.HasSuffix(p, ".csv.xz")) {
			members = append(members, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("store: %s: no csv members", path)
	}
	sort.Strings(members)

	merged := make(map[int64]market.Bar)
	for _, m := range members {
		series, err := LoadCSV(m, symbol)
		if err != nil {
			return nil, fmt.Errorf("store: %s member %s: %w", path, filepath.Base(m), err)
		}
		for _, b := range series.Bars {
			merged[b.Time.UnixMilli()] = b
		}
	}

	bars := make([]market.Bar, 0, len(merged))
	for _, b := range merged {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	return market.NewSeries(symbol, bars)
}
