package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite persists records to a single database file, creating the schema on
// open. Nil metric pointers are stored as NULL and come back as nil.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("journal: opening %s: %w", path, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: creating schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, symbol, params, data_path, start_time, end_time, bars,
		 initial_capital, final_value, total_return, cagr, volatility, sharpe,
		 max_drawdown, win_rate, profit_factor, trades, wins, losses, rejections, net_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Symbol, string(r.Params), r.DataPath,
		r.Start, r.End, r.Bars,
		r.InitialCapital, r.FinalValue, r.TotalReturn, r.CAGR, r.Volatility, r.Sharpe,
		r.MaxDrawdown, r.WinRate, r.ProfitFactor,
		r.Trades, r.Wins, r.Losses, r.Rejections, r.NetPnL,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, trade_id, symbol, side, quantity, entry_price, exit_price,
		 entry_time, exit_time, pnl, pnl_pct, commission)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.TradeID, t.Symbol, t.Side, t.Quantity, t.EntryPrice, t.ExitPrice,
		t.EntryTime, t.ExitTime, t.PnL, t.PnLPct, t.Commission,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, cash, position_value, total_value)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Time, e.Cash, e.PositionValue, e.TotalValue,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
