package journal

import (
	"database/sql"
	"fmt"
)

const runColumns = `run_id, created, strategy, symbol, params, data_path,
	start_time, end_time, bars, initial_capital, final_value, total_return,
	cagr, volatility, sharpe, max_drawdown, win_rate, profit_factor,
	trades, wins, losses, rejections, net_pnl`

// GetRun loads one run summary by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return RunRecord{}, fmt.Errorf("journal: run %s not found", runID)
	}
	return rec, err
}

// ListRuns returns all run summaries, newest first.
func (j *SQLite) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTradesByRun returns a run's trades in exit-time order.
func (j *SQLite) ListTradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, trade_id, symbol, side, quantity, entry_price, exit_price,
		       entry_time, exit_time, pnl, pnl_pct, commission
		FROM trades WHERE run_id = ? ORDER BY exit_time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		err := rows.Scan(&t.RunID, &t.TradeID, &t.Symbol, &t.Side, &t.Quantity,
			&t.EntryPrice, &t.ExitPrice, &t.EntryTime, &t.ExitTime,
			&t.PnL, &t.PnLPct, &t.Commission)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListEquityByRun returns a run's equity curve in time order.
func (j *SQLite) ListEquityByRun(runID string) ([]EquityRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, cash, position_value, total_value
		FROM equity WHERE run_id = ? ORDER BY time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var e EquityRecord
		if err := rows.Scan(&e.RunID, &e.Time, &e.Cash, &e.PositionValue, &e.TotalValue); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		r                              RunRecord
		params                         string
		cagr, vol, sharpe, winRate, pf sql.NullFloat64
	)
	err := s.Scan(&r.RunID, &r.Created, &r.Strategy, &r.Symbol, &params, &r.DataPath,
		&r.Start, &r.End, &r.Bars, &r.InitialCapital, &r.FinalValue, &r.TotalReturn,
		&cagr, &vol, &sharpe, &r.MaxDrawdown, &winRate, &pf,
		&r.Trades, &r.Wins, &r.Losses, &r.Rejections, &r.NetPnL)
	if err != nil {
		return RunRecord{}, err
	}
	if params != "" {
		r.Params = []byte(params)
	}
	r.CAGR = optFloat(cagr)
	r.Volatility = optFloat(vol)
	r.Sharpe = optFloat(sharpe)
	r.WinRate = optFloat(winRate)
	r.ProfitFactor = optFloat(pf)
	return r, nil
}

func optFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
