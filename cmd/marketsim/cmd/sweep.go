package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"marketsim/backtest"
	"marketsim/internal/logx"
	"marketsim/store"
	"marketsim/strategies"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Grid-search one strategy parameter in parallel",
	Long: `Sweep runs the same backtest once per value of a single integer strategy
parameter and ranks the results. Each run gets a fresh strategy and ledger;
the bar series is loaded once and shared read-only across workers.

Values that the strategy rejects (say a fast period crossing the slow one)
fail that run and the sweep continues.

Examples:
  marketsim sweep -d data/acme.csv -s sma-cross --sweep fast --min 5 --max 50 --step 5
  marketsim sweep -f run.yaml --sweep period --min 10 --max 30 --rank drawdown`,
	RunE: runSweep,
}

var (
	swConfigPath string
	swDataPath   string
	swSymbol     string
	swStrategy   string
	swParams     []string
	swSweepParam string
	swMin        int
	swMax        int
	swStep       int
	swWorkers    int
	swRank       string
	swJSON       bool
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&swConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	sweepCmd.Flags().StringVarP(&swDataPath, "data", "d", "", "path to bar data (.csv, .csv.xz, .zip, .parquet)")
	sweepCmd.Flags().StringVar(&swSymbol, "symbol", "", "symbol override (default: derived from the file name)")
	sweepCmd.Flags().StringVarP(&swStrategy, "strategy", "s", "", "strategy name")
	sweepCmd.Flags().StringArrayVarP(&swParams, "param", "p", nil, "fixed strategy parameter as name=value (repeatable)")
	sweepCmd.Flags().StringVar(&swSweepParam, "sweep", "", "name of the integer parameter to sweep (required)")
	sweepCmd.Flags().IntVar(&swMin, "min", 1, "first swept value (inclusive)")
	sweepCmd.Flags().IntVar(&swMax, "max", 1, "last swept value (inclusive)")
	sweepCmd.Flags().IntVar(&swStep, "step", 1, "increment between swept values")
	sweepCmd.Flags().IntVar(&swWorkers, "workers", runtime.GOMAXPROCS(0), "number of parallel runs")
	sweepCmd.Flags().StringVar(&swRank, "rank", "sharpe", "ranking metric: sharpe, cagr, return, pnl, win-rate, drawdown")
	sweepCmd.Flags().BoolVar(&swJSON, "json", false, "print every ranked result as JSON")

	sweepCmd.MarkFlagRequired("sweep")
}

// sweepRun pairs one swept value with its finished result.
type sweepRun struct {
	Value  int              `json:"value"`
	Result *backtest.Result `json:"result"`
}

func runSweep(cmd *cobra.Command, args []string) error {
	switch swRank {
	case "sharpe", "cagr", "return", "pnl", "win-rate", "drawdown":
	default:
		return fmt.Errorf("unknown rank metric %q (sharpe, cagr, return, pnl, win-rate, drawdown)", swRank)
	}
	if swStep <= 0 {
		return fmt.Errorf("--step must be positive, got %d", swStep)
	}
	if swMax < swMin {
		return fmt.Errorf("empty sweep: --min %d greater than --max %d", swMin, swMax)
	}
	if swWorkers <= 0 {
		swWorkers = runtime.GOMAXPROCS(0)
	}

	cfg, err := loadConfig(swConfigPath)
	if err != nil {
		return err
	}
	if swDataPath != "" {
		cfg.Data.Path = swDataPath
	}
	if swSymbol != "" {
		cfg.Data.Symbol = swSymbol
	}
	if swStrategy != "" {
		if !strings.EqualFold(swStrategy, cfg.Strategy.Name) {
			cfg.Strategy.Params = nil
		}
		cfg.Strategy.Name = swStrategy
	}
	if err := setParams(cfg, swParams); err != nil {
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

	// Per-run engine logs would interleave across workers, so they stay
	// off unless --log-level asks for them.
	log := logx.Discard()
	if rootLogLevel != "" {
		log = newLogger(cfg.LogLevel)
	}

	total := (swMax-swMin)/swStep + 1
	fmt.Printf("Sweeping %s over %s=%d..%d step %d (%d runs, %d workers)\n",
		cfg.Strategy.Name, swSweepParam, swMin, swMax, swStep, total, swWorkers)
	fmt.Printf("  Data: %s (%s, %d bars)\n\n", cfg.Data.Path, series.Symbol, series.Len())

	jobCh := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var runs []sweepRun
	var fail int

	for i := 0; i < swWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range jobCh {
				params := make(map[string]any, len(cfg.Strategy.Params)+1)
				for k, pv := range cfg.Strategy.Params {
					params[k] = pv
				}
				params[swSweepParam] = v

				strat, err := strategies.New(cfg.Strategy.Name, params)
				if err != nil {
					mu.Lock()
					fail++
					mu.Unlock()
					fmt.Printf("FAIL  %s=%d  (%v)\n", swSweepParam, v, err)
					continue
				}

				res, err := cfg.Engine(log).Run(strat, series)
				if err != nil {
					mu.Lock()
					fail++
					mu.Unlock()
					fmt.Printf("FAIL  %s=%d  (%v)\n", swSweepParam, v, err)
					continue
				}

				mu.Lock()
				runs = append(runs, sweepRun{Value: v, Result: res})
				mu.Unlock()
				fmt.Printf("OK    %s=%-6d pnl=%.2f trades=%d\n",
					swSweepParam, v, res.Summary.NetPnL, res.Summary.Trades)
			}
		}()
	}

	for v := swMin; v <= swMax; v += swStep {
		jobCh <- v
	}
	close(jobCh)
	wg.Wait()

	if len(runs) == 0 {
		return fmt.Errorf("all %d runs failed", fail)
	}

	// Lowest value first for deterministic ties, then rank.
	sort.Slice(runs, func(i, j int) bool { return runs[i].Value < runs[j].Value })
	sort.SliceStable(runs, func(i, j int) bool {
		vi, oki := rankValue(runs[i].Result, swRank)
		vj, okj := rankValue(runs[j].Result, swRank)
		if oki != okj {
			return oki
		}
		return vi > vj
	})

	if swJSON {
		out, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("\nSweep Complete! %d runs, %d failed (ranked by %s)\n\n", len(runs), fail, swRank)
	fmt.Printf("%-10s %12s %9s %8s %8s %7s\n", swSweepParam, "pnl", "return", "sharpe", "maxdd", "trades")
	for _, r := range runs {
		s := r.Result.Summary
		fmt.Printf("%-10d %12.2f %8.2f%% %8s %7.2f%% %7d\n",
			r.Value, s.NetPnL, 100*s.TotalReturn, fmtNum(s.Sharpe), 100*s.MaxDrawdown, s.Trades)
	}
	return nil
}

// rankValue reports the metric as higher-is-better; drawdown negates for
// that. ok is false when the metric is undefined for the run, which sorts
// it below every defined value.
func rankValue(res *backtest.Result, metric string) (float64, bool) {
	s := res.Summary
	switch metric {
	case "sharpe":
		return deref(s.Sharpe)
	case "cagr":
		return deref(s.CAGR)
	case "win-rate":
		return deref(s.WinRate)
	case "return":
		return s.TotalReturn, true
	case "pnl":
		return s.NetPnL, true
	case "drawdown":
		return -s.MaxDrawdown, true
	}
	return 0, false
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
