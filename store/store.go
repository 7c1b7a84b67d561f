// Package store loads and saves bar series in the formats runs consume:
// plain CSV, xz-compressed CSV, zip archives of CSV members, and Parquet.
// The CSV form carries optional indicator columns; Parquet keeps them in a
// map column so conversion is lossless either way.
package store

import (
	"path/filepath"
	"strings"

	"marketsim/market"
)

// Load reads a series from path, picking the codec from the extension:
// .zip archives, .parquet files, CSV otherwise (.xz decoded transparently).
// An empty symbol defaults to the file name stem, upper-cased.
func Load(path, symbol string) (*market.Series, error) {
	if symbol == "" {
		symbol = SymbolFromPath(path)
	}
	switch {
	case strings.HasSuffix(path, ".zip"):
		return LoadZip(path, symbol)
	case strings.HasSuffix(path, ".parquet"):
		return LoadParquet(path, symbol)
	default:
		return LoadCSV(path, symbol)
	}
}

// Save writes a series to path: .parquet as Parquet, CSV otherwise (.xz
// compressed transparently).
func Save(path string, series *market.Series) error {
	if strings.HasSuffix(path, ".parquet") {
		return SaveParquet(path, series)
	}
	return SaveCSV(path, series)
}

// SymbolFromPath derives a symbol from a data file name:
// "data/acme.csv.xz" becomes "ACME".
func SymbolFromPath(path string) string {
	name := filepath.Base(path)
	for {
		ext := filepath.Ext(name)
		if ext == "" {
			break
		}
		name = strings.TrimSuffix(name, ext)
	}
	return strings.ToUpper(name)
}
