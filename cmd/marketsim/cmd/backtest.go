package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"marketsim/backtest"
	"marketsim/config"
	"marketsim/internal/id"
	"marketsim/journal"
	"marketsim/store"
	"marketsim/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest over historical bar data",
	Long: `Backtest replays a bar series through a trading strategy against a
simulated portfolio and reports trades, rejections, and summary metrics.

Settings come from a config file, from flags, or both; flags win. Without
--config the defaults apply (100k capital, sma-cross, sqlite journal).

Supported strategies:
  - noop: emits no signals (baseline)
  - open-once: buys a fixed quantity on the first bar
  - sma-cross: simple moving average crossover
  - ema-cross: exponential moving average crossover
  - rsi-reversion: buys oversold, sells overbought

Examples:
  marketsim backtest -d data/acme.csv -s sma-cross -p fast=10 -p slow=30
  marketsim backtest -f run.yaml --org reports/run.org`,
	RunE: runBacktest,
}

var (
	btConfigPath  string
	btDataPath    string
	btSymbol      string
	btStrategy    string
	btFrom        string
	btTo          string
	btCapital     float64
	btParams      []string
	btJournalDrv  string
	btJournalPath string
	btOrgPath     string
	btJSON        bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	backtestCmd.Flags().StringVarP(&btDataPath, "data", "d", "", "path to bar data (.csv, .csv.xz, .zip, .parquet)")
	backtestCmd.Flags().StringVar(&btSymbol, "symbol", "", "symbol override (default: derived from the file name)")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name (noop, open-once, sma-cross, ema-cross, rsi-reversion)")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "drop bars before this date (YYYY-MM-DD or RFC3339)")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "drop bars after this date (YYYY-MM-DD or RFC3339)")
	backtestCmd.Flags().Float64VarP(&btCapital, "capital", "b", 0, "starting capital (overrides config)")
	backtestCmd.Flags().StringArrayVarP(&btParams, "param", "p", nil, "strategy parameter as name=value (repeatable)")
	backtestCmd.Flags().StringVar(&btJournalDrv, "journal", "", "journal driver: none, csv, sqlite (overrides config)")
	backtestCmd.Flags().StringVar(&btJournalPath, "journal-path", "", "journal destination (overrides config)")
	backtestCmd.Flags().StringVar(&btOrgPath, "org", "", "write an org-mode run report to this file")
	backtestCmd.Flags().BoolVar(&btJSON, "json", false, "print the full result as JSON")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(btConfigPath)
	if err != nil {
		return err
	}
	if btDataPath != "" {
		cfg.Data.Path = btDataPath
	}
	if btSymbol != "" {
		cfg.Data.Symbol = btSymbol
	}
	if btStrategy != "" {
		// Params from the config belong to the config's strategy; a
		// different strategy starts from a clean map.
		if !strings.EqualFold(btStrategy, cfg.Strategy.Name) {
			cfg.Strategy.Params = nil
		}
		cfg.Strategy.Name = btStrategy
	}
	if btCapital > 0 {
		cfg.Capital = btCapital
	}
	if btJournalDrv != "" {
		cfg.Journal.Driver = btJournalDrv
	}
	if btJournalPath != "" {
		cfg.Journal.Path = btJournalPath
	}
	if btFrom != "" {
		if cfg.Data.Start, err = parseTimeFlag(btFrom); err != nil {
			return fmt.Errorf("bad --from: %w", err)
		}
	}
	if btTo != "" {
		if cfg.Data.End, err = parseTimeFlag(btTo); err != nil {
			return fmt.Errorf("bad --to: %w", err)
		}
	}
	if err := setParams(cfg, btParams); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	series, err := store.Load(cfg.Data.Path, cfg.Data.Symbol)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	if !cfg.Data.Start.IsZero() || !cfg.Data.End.IsZero() {
		series = series.Window(cfg.Data.Start, cfg.Data.End)
	}

	strat, err := strategies.New(cfg.Strategy.Name, cfg.Strategy.Params)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	fmt.Printf("Running backtest with strategy: %s\n", cfg.Strategy.Name)
	fmt.Printf("  Data: %s (%s, %d bars)\n", cfg.Data.Path, series.Symbol, series.Len())
	fmt.Printf("  Capital: $%.2f\n\n", cfg.Capital)

	res, err := cfg.Engine(newLogger(cfg.LogLevel)).Run(strat, series)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	var params []byte
	if len(cfg.Strategy.Params) > 0 {
		if params, err = json.Marshal(cfg.Strategy.Params); err != nil {
			return fmt.Errorf("encode params: %w", err)
		}
	}
	rec := journal.NewRunRecord(id.New(), res, params, cfg.Data.Path)

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()
	if err := journal.Record(j, rec, res); err != nil {
		return err
	}

	if btOrgPath != "" {
		rep := journal.OrgReport{Run: rec, Trades: journal.TradeRecords(rec.RunID, res)}
		if err := rep.WriteFile(btOrgPath); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
	}

	if btJSON {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	printSummary(res, rec.RunID)
	switch cfg.Journal.Driver {
	case "csv", "sqlite":
		fmt.Printf("\nResults saved to: %s\n", cfg.Journal.Path)
	}
	if btOrgPath != "" {
		fmt.Printf("Report written to: %s\n", btOrgPath)
	}
	return nil
}

func printSummary(res *backtest.Result, runID string) {
	s := res.Summary
	fmt.Printf("\nBacktest Complete!\n")
	fmt.Printf("  Run: %s\n", runID)
	fmt.Printf("  Period: %s -> %s (%d bars)\n",
		res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"), res.Bars)
	fmt.Printf("  Initial: $%.2f\n", res.InitialCapital)
	fmt.Printf("  Final: $%.2f\n", res.FinalValue)
	fmt.Printf("  Net P&L: $%.2f (%.2f%%)\n", s.NetPnL, 100*s.TotalReturn)
	fmt.Printf("  Max Drawdown: %.2f%%\n", 100*s.MaxDrawdown)
	fmt.Printf("  Trades: %d (%d wins, %d losses), %d rejected\n",
		s.Trades, s.Wins, s.Losses, len(res.Rejections))
	fmt.Printf("  CAGR: %s  Volatility: %s  Sharpe: %s\n",
		fmtPct(s.CAGR), fmtPct(s.Volatility), fmtNum(s.Sharpe))
	fmt.Printf("  Win Rate: %s  Profit Factor: %s\n", fmtPct(s.WinRate), fmtNum(s.ProfitFactor))
}

// loadConfig returns the defaults when no file is named.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Driver {
	case "", "none":
		return journal.Nop{}, nil
	case "csv":
		return journal.NewCSV(jc.Path)
	case "sqlite":
		return journal.NewSQLite(jc.Path)
	default:
		return nil, fmt.Errorf("unknown journal driver %q", jc.Driver)
	}
}

// setParams merges name=value pairs into the strategy parameter map. Values
// parse as YAML scalars, so fast=15 stays an integer and band=2.5 a float.
func setParams(cfg *config.Config, pairs []string) error {
	if len(pairs) == 0 {
		return nil
	}
	if cfg.Strategy.Params == nil {
		cfg.Strategy.Params = make(map[string]any, len(pairs))
	}
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return fmt.Errorf("bad --param %q (want name=value)", pair)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		cfg.Strategy.Params[name] = v
	}
	return nil
}

func parseTimeFlag(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func fmtPct(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", 100**p)
}

func fmtNum(p *float64) string {
	if p == nil {
		return "n/a"
	}
	if math.IsInf(*p, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", *p)
}
