package backtest

import (
	"time"

	"marketsim/metrics"
	"marketsim/sim"
)

// Rejection is one refused order, kept on the result so a run accounts for
// every signal the strategy emitted.
type Rejection struct {
	BarIndex int       `json:"bar_index"`
	Time     time.Time `json:"time"`
	Symbol   string    `json:"symbol"`
	Side     sim.Side  `json:"side"`
	Quantity int64     `json:"quantity"`
	Code     string    `json:"code"`
	Msg      string    `json:"msg"`
}

// Result is the full record of one finished run.
type Result struct {
	Strategy       string    `json:"strategy"`
	Symbol         string    `json:"symbol"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Bars           int       `json:"bars"`
	InitialCapital float64   `json:"initial_capital"`
	FinalValue     float64   `json:"final_value"`
	FinalCash      float64   `json:"final_cash"`

	Trades      []sim.Trade     `json:"trades"`
	Rejections  []Rejection     `json:"rejections,omitempty"`
	EquityCurve []sim.Snapshot  `json:"equity_curve"`
	Summary     metrics.Summary `json:"summary"`
}
