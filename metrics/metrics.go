// Package metrics computes performance statistics over a finished equity
// curve and trade list. Compute is a pure function: deterministic, no I/O.
//
// Statistics that are undefined for the given inputs (no trades, too few
// snapshots, zero elapsed time) are reported as nil pointers rather than
// raised as errors. Profit factor uses +Inf as a sentinel for a run with
// wins and no losses.
package metrics

import (
	"math"
	"time"

	"marketsim/sim"
)

// Config makes the annualization assumptions explicit instead of hard-wiring
// a daily-bar calendar. RiskFreeRate is the per-period rate subtracted from
// mean returns in the Sharpe ratio.
type Config struct {
	PeriodsPerYear float64 `json:"periods_per_year" yaml:"periods_per_year"`
	RiskFreeRate   float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

// DefaultConfig assumes daily bars and a zero risk-free rate.
func DefaultConfig() Config {
	return Config{PeriodsPerYear: 252}
}

// Summary is the computed statistics block. Pointer fields are nil when the
// statistic is undefined for the inputs; they marshal as JSON null.
type Summary struct {
	TotalReturn  float64  `json:"total_return"`
	CAGR         *float64 `json:"cagr"`
	Volatility   *float64 `json:"volatility"`
	Sharpe       *float64 `json:"sharpe"`
	MaxDrawdown  float64  `json:"max_drawdown"`
	WinRate      *float64 `json:"win_rate"`
	ProfitFactor *float64 `json:"profit_factor"`

	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	GrossProfit float64 `json:"gross_profit"`
	GrossLoss   float64 `json:"gross_loss"`
	NetPnL      float64 `json:"net_pnl"`
}

// Compute derives the summary from the equity curve and closed trades.
// An empty curve yields a zero summary with every optional statistic nil.
func Compute(curve []sim.Snapshot, trades []sim.Trade, cfg Config) Summary {
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = DefaultConfig().PeriodsPerYear
	}

	s := Summary{}
	tradeStats(&s, trades)
	if len(curve) == 0 {
		return s
	}

	initial := curve[0].TotalValue
	final := curve[len(curve)-1].TotalValue
	if initial != 0 {
		s.TotalReturn = (final - initial) / initial
	}
	s.CAGR = cagr(initial, final, curve[0].Time, curve[len(curve)-1].Time)
	s.MaxDrawdown = maxDrawdown(curve)

	rets := periodReturns(curve)
	if len(rets) >= 2 {
		sd := sampleStdev(rets)
		annual := math.Sqrt(cfg.PeriodsPerYear)
		s.Volatility = ptr(sd * annual)
		if sd > 0 {
			s.Sharpe = ptr((mean(rets) - cfg.RiskFreeRate) / sd * annual)
		}
	}

	return s
}

func tradeStats(s *Summary, trades []sim.Trade) {
	s.Trades = len(trades)
	for _, tr := range trades {
		s.NetPnL += tr.PnL
		switch {
		case tr.PnL > 0:
			s.Wins++
			s.GrossProfit += tr.PnL
		case tr.PnL < 0:
			s.Losses++
			s.GrossLoss += -tr.PnL
		}
	}
	if s.Trades == 0 {
		return
	}

	s.WinRate = ptr(float64(s.Wins) / float64(s.Trades))

	switch {
	case s.GrossLoss > 0:
		s.ProfitFactor = ptr(s.GrossProfit / s.GrossLoss)
	case s.GrossProfit > 0:
		s.ProfitFactor = ptr(math.Inf(1))
	default:
		// Every trade closed flat: 0/0 stays undefined.
	}
}

// cagr is (final/initial)^(365.25/elapsedDays) - 1, undefined when no time
// elapsed or either endpoint is non-positive.
func cagr(initial, final float64, start, end time.Time) *float64 {
	days := end.Sub(start).Hours() / 24
	if days <= 0 || initial <= 0 || final <= 0 {
		return nil
	}
	return ptr(math.Pow(final/initial, 365.25/days) - 1)
}

// periodReturns are simple returns between consecutive snapshots. Intervals
// starting from a non-positive value are skipped.
func periodReturns(curve []sim.Snapshot) []float64 {
	if len(curve) < 2 {
		return nil
	}
	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].TotalValue
		if prev <= 0 {
			continue
		}
		rets = append(rets, (curve[i].TotalValue-prev)/prev)
	}
	return rets
}

// maxDrawdown is the largest peak-to-trough loss as a fraction of the peak,
// always in [0, 1) for a curve with at least one snapshot.
func maxDrawdown(curve []sim.Snapshot) float64 {
	var peak, maxDD float64
	for _, snap := range curve {
		if snap.TotalValue > peak {
			peak = snap.TotalValue
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - snap.TotalValue) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdev uses the n-1 denominator; callers guard len(xs) >= 2.
func sampleStdev(xs []float64) float64 {
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}

func ptr(v float64) *float64 { return &v }
