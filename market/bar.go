package market

import "time"

// Bar is one OHLCV observation at a point in time.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	// Indicators holds optional precomputed values keyed by name,
	// e.g. "sma_20" or "rsi_14". Nil when none are attached.
	Indicators map[string]float64
}

// Indicator looks up a precomputed indicator value by key.
func (b Bar) Indicator(key string) (float64, bool) {
	if b.Indicators == nil {
		return 0, false
	}
	v, ok := b.Indicators[key]
	return v, ok
}

// SetIndicator attaches a precomputed value, allocating the map on first use.
func (b *Bar) SetIndicator(key string, v float64) {
	if b.Indicators == nil {
		b.Indicators = make(map[string]float64)
	}
	b.Indicators[key] = v
}
