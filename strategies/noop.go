package strategies

import (
	"marketsim/backtest"
	"marketsim/market"
	"marketsim/sim"
)

func init() {
	Register("noop", func(params map[string]any) (backtest.Strategy, error) {
		if err := DecodeParams(params, &struct{}{}); err != nil {
			return nil, err
		}
		return Noop{}, nil
	})
}

// Noop never trades. Useful as a baseline: its equity curve is the initial
// capital, flat.
type Noop struct{}

func (Noop) Name() string { return "noop" }
func (Noop) Reset()       {}

func (Noop) OnBar(*backtest.Context, market.Bar) (*sim.Signal, error) {
	return nil, nil
}
