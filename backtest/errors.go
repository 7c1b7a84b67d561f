package backtest

import (
	"fmt"
	"time"

	"marketsim/sim"
)

// ValidationError reports a run setup problem found before the bar loop
// starts. Nothing has executed when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("backtest: invalid %s: %s", e.Field, e.Reason)
}

// StrategyError aborts a run when the strategy callback returns an error or
// panics. The equity curve collected up to the failing bar rides along for
// diagnostics instead of being discarded.
type StrategyError struct {
	Strategy    string
	BarIndex    int
	BarTime     time.Time
	Err         error
	EquityCurve []sim.Snapshot
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("backtest: strategy %q failed at bar %d (%s): %v",
		e.Strategy, e.BarIndex, e.BarTime.Format(time.RFC3339), e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }
