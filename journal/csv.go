package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CSV writes runs.csv, trades.csv, and equity.csv under one directory.
// Undefined metrics serialize as empty cells.
type CSV struct {
	runs   *csvFile
	trades *csvFile
	equity *csvFile
}

func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: creating %s: %w", dir, err)
	}

	runs, err := newCSVFile(filepath.Join(dir, "runs.csv"), []string{
		"run_id", "created", "strategy", "symbol", "params", "data_path",
		"start", "end", "bars", "initial_capital", "final_value", "total_return",
		"cagr", "volatility", "sharpe", "max_drawdown", "win_rate", "profit_factor",
		"trades", "wins", "losses", "rejections", "net_pnl",
	})
	if err != nil {
		return nil, err
	}
	trades, err := newCSVFile(filepath.Join(dir, "trades.csv"), []string{
		"run_id", "trade_id", "symbol", "side", "quantity", "entry_price",
		"exit_price", "entry_time", "exit_time", "pnl", "pnl_pct", "commission",
	})
	if err != nil {
		runs.close()
		return nil, err
	}
	equity, err := newCSVFile(filepath.Join(dir, "equity.csv"), []string{
		"run_id", "time", "cash", "position_value", "total_value",
	})
	if err != nil {
		runs.close()
		trades.close()
		return nil, err
	}

	return &CSV{runs: runs, trades: trades, equity: equity}, nil
}

func (j *CSV) RecordRun(r RunRecord) error {
	return j.runs.write([]string{
		r.RunID, ts(r.Created), r.Strategy, r.Symbol, string(r.Params), r.DataPath,
		ts(r.Start), ts(r.End), strconv.Itoa(r.Bars),
		f64(r.InitialCapital), f64(r.FinalValue), f64(r.TotalReturn),
		opt(r.CAGR), opt(r.Volatility), opt(r.Sharpe),
		f64(r.MaxDrawdown), opt(r.WinRate), opt(r.ProfitFactor),
		strconv.Itoa(r.Trades), strconv.Itoa(r.Wins), strconv.Itoa(r.Losses),
		strconv.Itoa(r.Rejections), f64(r.NetPnL),
	})
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	return j.trades.write([]string{
		t.RunID, t.TradeID, t.Symbol, t.Side,
		strconv.FormatInt(t.Quantity, 10),
		f64(t.EntryPrice), f64(t.ExitPrice),
		ts(t.EntryTime), ts(t.ExitTime),
		f64(t.PnL), f64(t.PnLPct), f64(t.Commission),
	})
}

func (j *CSV) RecordEquity(e EquityRecord) error {
	return j.equity.write([]string{
		e.RunID, ts(e.Time), f64(e.Cash), f64(e.PositionValue), f64(e.TotalValue),
	})
}

func (j *CSV) Close() error {
	errRuns := j.runs.close()
	errTrades := j.trades.close()
	errEquity := j.equity.close()
	if errRuns != nil {
		return errRuns
	}
	if errTrades != nil {
		return errTrades
	}
	return errEquity
}

type csvFile struct {
	f *os.File
	w *csv.Writer
}

func newCSVFile(path string, header []string) (*csvFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, err
	}
	return &csvFile{f: f, w: w}, nil
}

func (c *csvFile) write(record []string) error {
	if err := c.w.Write(record); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvFile) close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return err
	}
	return c.f.Close()
}

func f64(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func opt(p *float64) string {
	if p == nil {
		return ""
	}
	return f64(*p)
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
