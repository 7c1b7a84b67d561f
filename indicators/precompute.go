package indicators

import (
	"fmt"
	"strconv"
	"strings"

	"marketsim/market"
)

// Spec names one precompute pass over a series, parsed from strings like
// "sma:20", "ema:50", "rsi:14", "macd:12:26:9" or "bb:20:2". Omitted numbers
// take the conventional defaults.
type Spec struct {
	Kind   string
	Period int
	Slow   int     // macd only
	Signal int     // macd only
	K      float64 // bollinger only
}

// ParseSpec parses a single spec string.
func ParseSpec(s string) (Spec, error) {
	parts := strings.Split(strings.TrimSpace(strings.ToLower(s)), ":")
	spec := Spec{Kind: parts[0]}

	num := func(i, def int) (int, error) {
		if len(parts) <= i || parts[i] == "" {
			return def, nil
		}
		return strconv.Atoi(parts[i])
	}

	var err error
	switch spec.Kind {
	case "sma", "ema":
		if spec.Period, err = num(1, 20); err != nil {
			return Spec{}, fmt.Errorf("indicators: bad spec %q: %w", s, err)
		}
	case "rsi":
		if spec.Period, err = num(1, 14); err != nil {
			return Spec{}, fmt.Errorf("indicators: bad spec %q: %w", s, err)
		}
	case "macd":
		if spec.Period, err = num(1, 12); err != nil {
			return Spec{}, fmt.Errorf("indicators: bad spec %q: %w", s, err)
		}
		if spec.Slow, err = num(2, 26); err != nil {
			return Spec{}, fmt.Errorf("indicators: bad spec %q: %w", s, err)
		}
		if spec.Signal, err = num(3, 9); err != nil {
			return Spec{}, fmt.Errorf("indicators: bad spec %q: %w", s, err)
		}
		if spec.Period >= spec.Slow {
			return Spec{}, fmt.Errorf("indicators: macd fast period %d must be below slow %d", spec.Period, spec.Slow)
		}
	case "bb":
		if spec.Period, err = num(1, 20); err != nil {
			return Spec{}, fmt.Errorf("indicators: bad spec %q: %w", s, err)
		}
		spec.K = 2.0
		if len(parts) > 2 && parts[2] != "" {
			if spec.K, err = strconv.ParseFloat(parts[2], 64); err != nil {
				return Spec{}, fmt.Errorf("indicators: bad spec %q: %w", s, err)
			}
		}
	default:
		return Spec{}, fmt.Errorf("indicators: unknown kind %q (supported: sma, ema, rsi, macd, bb)", spec.Kind)
	}

	if spec.Period <= 0 {
		return Spec{}, fmt.Errorf("indicators: spec %q: period must be positive", s)
	}
	return spec, nil
}

// ParseSpecs parses a comma-separated spec list.
func ParseSpecs(s string) ([]Spec, error) {
	var specs []Spec
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		spec, err := ParseSpec(part)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Precompute walks the series once and attaches indicator values to each bar
// under stable keys: sma_20, ema_50, rsi_14, macd_12_26 (+ macd_signal_...,
// macd_hist_...), bb_mid_20 (+ bb_upper_20, bb_lower_20). Bars before an
// indicator's warmup simply get no key.
func Precompute(series *market.Series, specs []Spec) error {
	if series == nil || len(series.Bars) == 0 {
		return fmt.Errorf("indicators: empty series")
	}

	type pass struct {
		spec Spec
		ind  Indicator
		key  string
	}

	passes := make([]pass, 0, len(specs))
	for _, spec := range specs {
		p := pass{spec: spec}
		switch spec.Kind {
		case "sma":
			p.ind = NewMA(spec.Period)
			p.key = fmt.Sprintf("sma_%d", spec.Period)
		case "ema":
			p.ind = NewEMA(spec.Period)
			p.key = fmt.Sprintf("ema_%d", spec.Period)
		case "rsi":
			p.ind = NewRSI(spec.Period)
			p.key = fmt.Sprintf("rsi_%d", spec.Period)
		case "macd":
			p.ind = NewMACD(spec.Period, spec.Slow, spec.Signal)
			p.key = fmt.Sprintf("macd_%d_%d", spec.Period, spec.Slow)
		case "bb":
			p.ind = NewBollinger(spec.Period, spec.K)
			p.key = fmt.Sprintf("bb_mid_%d", spec.Period)
		default:
			return fmt.Errorf("indicators: unknown kind %q", spec.Kind)
		}
		passes = append(passes, p)
	}

	for i := range series.Bars {
		bar := series.Bars[i]
		for _, p := range passes {
			p.ind.Update(bar)
			if !p.ind.Ready() {
				continue
			}
			series.Bars[i].SetIndicator(p.key, p.ind.Value())

			switch ind := p.ind.(type) {
			case *MACD:
				series.Bars[i].SetIndicator(
					fmt.Sprintf("macd_signal_%d_%d_%d", p.spec.Period, p.spec.Slow, p.spec.Signal), ind.Signal())
				series.Bars[i].SetIndicator(
					fmt.Sprintf("macd_hist_%d_%d_%d", p.spec.Period, p.spec.Slow, p.spec.Signal), ind.Histogram())
			case *Bollinger:
				series.Bars[i].SetIndicator(fmt.Sprintf("bb_upper_%d", p.spec.Period), ind.Upper())
				series.Bars[i].SetIndicator(fmt.Sprintf("bb_lower_%d", p.spec.Period), ind.Lower())
			}
		}
	}
	return nil
}
