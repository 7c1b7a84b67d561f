// Package risk gates proposed trades against portfolio limits. Every check
// is stateless per call: the caller passes a portfolio snapshot instead of
// sharing a ledger, so one gate serves simulated fills and live order flow,
// concurrently, with the same contract.
package risk

import (
	"fmt"
	"math"
	"strings"
)

// Violation codes recorded on Result.
const (
	CodeBadQuantity          = "BAD_QUANTITY"
	CodeBadPrice             = "BAD_PRICE"
	CodePositionTooLarge     = "POSITION_TOO_LARGE"
	CodeExposureTooHigh      = "EXPOSURE_TOO_HIGH"
	CodeConcentrationTooHigh = "CONCENTRATION_TOO_HIGH"
)

// Limits caps trades as fractions of total portfolio value. A zero or
// negative limit disables its check.
type Limits struct {
	// MaxPositionPct caps a single trade's notional.
	MaxPositionPct float64 `json:"max_position_pct" yaml:"max_position_pct"`
	// MaxExposurePct caps total open notional after the trade.
	MaxExposurePct float64 `json:"max_exposure_pct" yaml:"max_exposure_pct"`
	// MaxConcentrationPct caps one symbol's notional after the trade.
	MaxConcentrationPct float64 `json:"max_concentration_pct" yaml:"max_concentration_pct"`
}

// Enabled reports whether any check is active.
func (l Limits) Enabled() bool {
	return l.MaxPositionPct > 0 || l.MaxExposurePct > 0 || l.MaxConcentrationPct > 0
}

// Snapshot is the portfolio state a trade is checked against: the total
// portfolio value and the open notional per symbol.
type Snapshot struct {
	TotalValue float64
	Notional   map[string]float64
}

// Exposure sums the open notional across all symbols.
func (s Snapshot) Exposure() float64 {
	var total float64
	for _, n := range s.Notional {
		total += n
	}
	return total
}

// Violation is one failed check with the figure that tripped it and the cap
// it was measured against.
type Violation struct {
	Code  string
	Msg   string
	Value float64
	Limit float64
}

// Result carries the verdict plus diagnostics. Every enabled check runs, so
// Violations holds all failed checks, not just the first.
type Result struct {
	Approved   bool
	Violations []Violation

	TradeValue float64
	Exposure   float64
}

func (r *Result) add(code, msg string, value, limit float64) {
	r.Violations = append(r.Violations, Violation{Code: code, Msg: msg, Value: value, Limit: limit})
	r.Approved = false
}

// Reason joins the violation messages, empty when approved.
func (r Result) Reason() string {
	if r.Approved {
		return ""
	}
	parts := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		parts[i] = v.Msg
	}
	return strings.Join(parts, "; ")
}

// CheckTrade evaluates a proposed trade of quantity*price in symbol against
// the limits. Trades sitting exactly on a cap pass; rejection requires
// strictly exceeding it.
func CheckTrade(snap Snapshot, symbol string, quantity int64, price float64, limits Limits) Result {
	r := Result{Approved: true, Exposure: snap.Exposure()}

	if quantity <= 0 {
		r.add(CodeBadQuantity, fmt.Sprintf("quantity %d must be positive", quantity),
			float64(quantity), 0)
		return r
	}
	if price <= 0 {
		r.add(CodeBadPrice, fmt.Sprintf("price %.4f must be positive", price), price, 0)
		return r
	}
	r.TradeValue = float64(quantity) * price

	if limits.MaxPositionPct > 0 {
		limit := snap.TotalValue * limits.MaxPositionPct
		if r.TradeValue > limit {
			r.add(CodePositionTooLarge,
				fmt.Sprintf("trade value %.2f exceeds %.1f%% position cap %.2f",
					r.TradeValue, 100*limits.MaxPositionPct, limit),
				r.TradeValue, limit)
		}
	}
	if limits.MaxExposurePct > 0 {
		limit := snap.TotalValue * limits.MaxExposurePct
		after := r.Exposure + r.TradeValue
		if after > limit {
			r.add(CodeExposureTooHigh,
				fmt.Sprintf("exposure %.2f after trade exceeds %.1f%% cap %.2f",
					after, 100*limits.MaxExposurePct, limit),
				after, limit)
		}
	}
	if limits.MaxConcentrationPct > 0 {
		limit := snap.TotalValue * limits.MaxConcentrationPct
		after := snap.Notional[symbol] + r.TradeValue
		if after > limit {
			r.add(CodeConcentrationTooHigh,
				fmt.Sprintf("%s notional %.2f after trade exceeds %.1f%% cap %.2f",
					symbol, after, 100*limits.MaxConcentrationPct, limit),
				after, limit)
		}
	}

	return r
}

// MaxQuantity returns the largest quantity of symbol at price that every
// enabled check would approve, floored to whole units. ok is false when no
// positive quantity passes or when no enabled limit bounds the trade.
func MaxQuantity(snap Snapshot, symbol string, price float64, limits Limits) (int64, bool) {
	if price <= 0 {
		return 0, false
	}

	headroom := math.Inf(1)
	if limits.MaxPositionPct > 0 {
		headroom = math.Min(headroom, snap.TotalValue*limits.MaxPositionPct)
	}
	if limits.MaxExposurePct > 0 {
		headroom = math.Min(headroom, snap.TotalValue*limits.MaxExposurePct-snap.Exposure())
	}
	if limits.MaxConcentrationPct > 0 {
		headroom = math.Min(headroom, snap.TotalValue*limits.MaxConcentrationPct-snap.Notional[symbol])
	}
	if math.IsInf(headroom, 1) {
		return 0, false
	}

	qty := int64(math.Floor(headroom / price))
	if qty <= 0 {
		return 0, false
	}
	return qty, true
}
