// Package backtest replays a bar series through a strategy against a
// simulated ledger and reports the equity curve, trades, and summary
// statistics of the run.
//
// Fills use the close of the bar that produced the signal. That is a
// documented simplification: real executions happen after the close at
// whatever price the market offers next.
package backtest

import (
	"errors"
	"fmt"
	"log/slog"

	"marketsim/internal/logx"
	"marketsim/market"
	"marketsim/metrics"
	"marketsim/risk"
	"marketsim/sim"
)

// Engine holds the run configuration. One Engine may run many times; all
// per-run state lives in the ledger and result, so distinct runs can execute
// on separate goroutines as long as each gets its own strategy instance.
type Engine struct {
	InitialCapital float64
	CommissionRate float64
	SlippageRate   float64

	// Limits enables the pre-trade risk gate when non-nil.
	Limits *risk.Limits

	Metrics metrics.Config
	Log     *slog.Logger
}

// New returns an engine with the default metrics assumptions.
func New(capital float64) *Engine {
	return &Engine{
		InitialCapital: capital,
		Metrics:        metrics.DefaultConfig(),
	}
}

// Run replays series through strat, one bar at a time in ascending order.
//
// Each bar: the portfolio is snapshotted at the bar's close using ledger
// state from the previous bar's fills, then the strategy decides, then any
// signal executes at this same bar's close. A terminal snapshot after the
// loop captures the last bar's fills, so the curve has len(series)+1 points.
//
// Rejected orders are recorded and the run continues. A strategy error or
// panic aborts with a *StrategyError carrying the partial equity curve.
func (e *Engine) Run(strat Strategy, series *market.Series) (*Result, error) {
	if err := e.validate(strat, series); err != nil {
		return nil, err
	}
	log := e.Log
	if log == nil {
		log = logx.Discard()
	}

	ledger := sim.NewLedger(e.InitialCapital)
	exec := sim.Executor{
		CommissionRate: e.CommissionRate,
		SlippageRate:   e.SlippageRate,
		Limits:         e.Limits,
	}

	res := &Result{
		Strategy:       strat.Name(),
		Symbol:         series.Symbol,
		Start:          series.Start(),
		End:            series.End(),
		Bars:           series.Len(),
		InitialCapital: e.InitialCapital,
	}
	curve := make([]sim.Snapshot, 0, series.Len()+1)

	strat.Reset()

	prices := make(map[string]float64, 1)
	for i := range series.Bars {
		bar := series.Bars[i]
		prices[series.Symbol] = bar.Close

		snap := ledger.Snapshot(bar.Time, prices)
		curve = append(curve, snap)
		for _, sym := range snap.Stale {
			log.Warn("stale valuation", "symbol", sym, "bar", i)
		}

		ctx := &Context{
			Symbol:    series.Symbol,
			Index:     i,
			Time:      bar.Time,
			Cash:      ledger.Cash(),
			Positions: ledger.View(),
		}
		signal, err := decide(strat, ctx, bar)
		if err != nil {
			return nil, &StrategyError{
				Strategy:    strat.Name(),
				BarIndex:    i,
				BarTime:     bar.Time,
				Err:         err,
				EquityCurve: curve,
			}
		}
		if signal == nil {
			continue
		}
		if signal.Symbol == "" {
			signal.Symbol = series.Symbol
		}

		order := sim.Order{Signal: *signal, Time: bar.Time, Ref: prices[signal.Symbol]}
		fill, err := exec.Execute(ledger, order)
		switch {
		case err == nil:
			log.Debug("fill",
				"bar", i, "side", string(fill.Side), "qty", fill.Quantity,
				"price", fill.Price, "commission", fill.Commission)
			if fill.Trade != nil {
				res.Trades = append(res.Trades, *fill.Trade)
			}
		case errors.Is(err, sim.ErrNotTriggered):
			log.Debug("order lapsed", "bar", i, "kind", string(signal.Kind))
		default:
			var rej *sim.RejectedOrderError
			if !errors.As(err, &rej) {
				return nil, fmt.Errorf("backtest: bar %d: %w", i, err)
			}
			res.Rejections = append(res.Rejections, Rejection{
				BarIndex: i,
				Time:     bar.Time,
				Symbol:   rej.Symbol,
				Side:     rej.Side,
				Quantity: rej.Quantity,
				Code:     rej.Code,
				Msg:      rej.Msg,
			})
			log.Warn("order rejected",
				"bar", i, "symbol", rej.Symbol, "side", string(rej.Side),
				"qty", rej.Quantity, "code", rej.Code, "msg", rej.Msg)
		}
	}

	last := series.Bars[series.Len()-1]
	curve = append(curve, ledger.Snapshot(last.Time, prices))

	res.EquityCurve = curve
	res.FinalCash = ledger.Cash()
	res.FinalValue = curve[len(curve)-1].TotalValue
	res.Summary = metrics.Compute(curve, res.Trades, e.Metrics)

	log.Info("run complete",
		"strategy", strat.Name(), "symbol", series.Symbol, "bars", series.Len(),
		"trades", len(res.Trades), "rejections", len(res.Rejections),
		"final_value", res.FinalValue)
	return res, nil
}

func (e *Engine) validate(strat Strategy, series *market.Series) error {
	if strat == nil {
		return &ValidationError{Field: "strategy", Reason: "required"}
	}
	if e.InitialCapital <= 0 {
		return &ValidationError{Field: "initial_capital",
			Reason: fmt.Sprintf("%.2f is not positive", e.InitialCapital)}
	}
	if e.CommissionRate < 0 {
		return &ValidationError{Field: "commission_rate", Reason: "must not be negative"}
	}
	if e.SlippageRate < 0 {
		return &ValidationError{Field: "slippage_rate", Reason: "must not be negative"}
	}
	if series == nil || series.Len() == 0 {
		return &ValidationError{Field: "series", Reason: "empty bar series"}
	}
	if err := series.Validate(); err != nil {
		return &ValidationError{Field: "series", Reason: err.Error()}
	}
	return nil
}

// decide invokes the strategy, converting a panic into an error so a broken
// strategy aborts the run instead of the process.
func decide(strat Strategy, ctx *Context, bar market.Bar) (signal *sim.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return strat.OnBar(ctx, bar)
}
