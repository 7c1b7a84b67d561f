package market

import (
	"fmt"
	"sort"
	"time"
)

// Series is an ordered run of bars for a single symbol. Bars are loaded once
// and treated as immutable; timestamps must be strictly increasing.
type Series struct {
	Symbol string
	Bars   []Bar
}

// NewSeries builds a validated series.
func NewSeries(symbol string, bars []Bar) (*Series, error) {
	s := &Series{Symbol: symbol, Bars: bars}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks symbol, ordering and per-bar sanity. Duplicate or
// out-of-order timestamps are errors, not warnings: the engine's no-look-ahead
// guarantee depends on the order being trustworthy.
func (s *Series) Validate() error {
	if s == nil {
		return fmt.Errorf("nil series")
	}
	if s.Symbol == "" {
		return fmt.Errorf("series symbol is required")
	}
	if len(s.Bars) == 0 {
		return fmt.Errorf("series %s has no bars", s.Symbol)
	}

	var prev time.Time
	for i, b := range s.Bars {
		if b.Time.IsZero() {
			return fmt.Errorf("series %s bar %d: zero timestamp", s.Symbol, i)
		}
		if i > 0 && !b.Time.After(prev) {
			return fmt.Errorf("series %s bar %d: timestamp %s not after %s",
				s.Symbol, i, b.Time.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
		if b.High < b.Low {
			return fmt.Errorf("series %s bar %d: high %.6f below low %.6f", s.Symbol, i, b.High, b.Low)
		}
		if b.Close <= 0 {
			return fmt.Errorf("series %s bar %d: non-positive close %.6f", s.Symbol, i, b.Close)
		}
		prev = b.Time
	}
	return nil
}

func (s *Series) Len() int { return len(s.Bars) }

// Start returns the first bar's timestamp (zero time for an empty series).
func (s *Series) Start() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[0].Time
}

// End returns the last bar's timestamp (zero time for an empty series).
func (s *Series) End() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Time
}

// Truncate returns a series covering only the first n bars. The bar slice is
// shared, not copied; bars are immutable by convention.
func (s *Series) Truncate(n int) *Series {
	if n > len(s.Bars) {
		n = len(s.Bars)
	}
	if n < 0 {
		n = 0
	}
	return &Series{Symbol: s.Symbol, Bars: s.Bars[:n]}
}

// Window returns the sub-series inside [start, end], both inclusive; a zero
// bound leaves that side open. The bar slice is shared, not copied.
func (s *Series) Window(start, end time.Time) *Series {
	lo := 0
	if !start.IsZero() {
		lo = sort.Search(len(s.Bars), func(i int) bool { return !s.Bars[i].Time.Before(start) })
	}
	hi := len(s.Bars)
	if !end.IsZero() {
		hi = sort.Search(len(s.Bars), func(i int) bool { return s.Bars[i].Time.After(end) })
	}
	if hi < lo {
		hi = lo
	}
	return &Series{Symbol: s.Symbol, Bars: s.Bars[lo:hi]}
}
