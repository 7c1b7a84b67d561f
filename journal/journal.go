// Package journal persists finished backtest runs so they can be compared
// later: SQLite for querying, CSV for spreadsheets, org-mode for notes.
package journal

import (
	"fmt"
	"time"

	"marketsim/backtest"
)

// RunRecord summarizes one finished run. Pointer fields mirror the metrics
// block: nil means the statistic was undefined and persists as NULL.
type RunRecord struct {
	RunID   string
	Created time.Time

	Strategy string
	Symbol   string
	Params   []byte // strategy parameters as JSON
	DataPath string

	Start time.Time
	End   time.Time
	Bars  int

	InitialCapital float64
	FinalValue     float64

	TotalReturn  float64
	CAGR         *float64
	Volatility   *float64
	Sharpe       *float64
	MaxDrawdown  float64
	WinRate      *float64
	ProfitFactor *float64

	Trades     int
	Wins       int
	Losses     int
	Rejections int
	NetPnL     float64
}

// TradeRecord is one closed round trip within a run.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Symbol     string
	Side       string
	Quantity   int64
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	PnL        float64
	PnLPct     float64
	Commission float64
}

// EquityRecord is one equity-curve point within a run.
type EquityRecord struct {
	RunID         string
	Time          time.Time
	Cash          float64
	PositionValue float64
	TotalValue    float64
}

// Journal is the persistence contract. Implementations must tolerate being
// handed records in any order within a run.
type Journal interface {
	RecordRun(RunRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}

// NewRunRecord derives the run summary from a finished result.
func NewRunRecord(runID string, res *backtest.Result, params []byte, dataPath string) RunRecord {
	s := res.Summary
	return RunRecord{
		RunID:          runID,
		Created:        time.Now().UTC(),
		Strategy:       res.Strategy,
		Symbol:         res.Symbol,
		Params:         params,
		DataPath:       dataPath,
		Start:          res.Start,
		End:            res.End,
		Bars:           res.Bars,
		InitialCapital: res.InitialCapital,
		FinalValue:     res.FinalValue,
		TotalReturn:    s.TotalReturn,
		CAGR:           s.CAGR,
		Volatility:     s.Volatility,
		Sharpe:         s.Sharpe,
		MaxDrawdown:    s.MaxDrawdown,
		WinRate:        s.WinRate,
		ProfitFactor:   s.ProfitFactor,
		Trades:         s.Trades,
		Wins:           s.Wins,
		Losses:         s.Losses,
		Rejections:     len(res.Rejections),
		NetPnL:         s.NetPnL,
	}
}

// TradeRecords maps every closed trade of a result onto runID.
func TradeRecords(runID string, res *backtest.Result) []TradeRecord {
	recs := make([]TradeRecord, 0, len(res.Trades))
	for _, tr := range res.Trades {
		recs = append(recs, TradeRecord{
			RunID:      runID,
			TradeID:    tr.ID,
			Symbol:     tr.Symbol,
			Side:       string(tr.Side),
			Quantity:   tr.Quantity,
			EntryPrice: tr.EntryPrice,
			ExitPrice:  tr.ExitPrice,
			EntryTime:  tr.EntryTime,
			ExitTime:   tr.ExitTime,
			PnL:        tr.PnL,
			PnLPct:     tr.PnLPct,
			Commission: tr.Commission,
		})
	}
	return recs
}

// Record writes the run summary plus every trade and equity point.
func Record(j Journal, rec RunRecord, res *backtest.Result) error {
	if err := j.RecordRun(rec); err != nil {
		return fmt.Errorf("journal: run %s: %w", rec.RunID, err)
	}
	for _, tr := range TradeRecords(rec.RunID, res) {
		if err := j.RecordTrade(tr); err != nil {
			return fmt.Errorf("journal: trade %s: %w", tr.TradeID, err)
		}
	}
	for _, snap := range res.EquityCurve {
		err := j.RecordEquity(EquityRecord{
			RunID:         rec.RunID,
			Time:          snap.Time,
			Cash:          snap.Cash,
			PositionValue: snap.PositionValue,
			TotalValue:    snap.TotalValue,
		})
		if err != nil {
			return fmt.Errorf("journal: equity at %s: %w", snap.Time, err)
		}
	}
	return nil
}

// Nop discards everything. It stands in when journaling is disabled.
type Nop struct{}

func (Nop) RecordRun(RunRecord) error       { return nil }
func (Nop) RecordTrade(TradeRecord) error   { return nil }
func (Nop) RecordEquity(EquityRecord) error { return nil }
func (Nop) Close() error                    { return nil }
