package strategies

import (
	"fmt"

	"marketsim/backtest"
	"marketsim/market"
	"marketsim/sim"
)

func init() {
	Register("open-once", func(params map[string]any) (backtest.Strategy, error) {
		var p OpenOnceParams
		if err := DecodeParams(params, &p); err != nil {
			return nil, err
		}
		return NewOpenOnce(p)
	})
}

type OpenOnceParams struct {
	Quantity int64 `yaml:"quantity"`
}

// OpenOnce buys a fixed quantity on the first bar and holds it for the rest
// of the run. It benchmarks buy-and-hold against anything cleverer.
type OpenOnce struct {
	quantity int64
	opened   bool
}

func NewOpenOnce(p OpenOnceParams) (*OpenOnce, error) {
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("strategies: open-once: quantity must be positive, got %d", p.Quantity)
	}
	return &OpenOnce{quantity: p.Quantity}, nil
}

func (s *OpenOnce) Name() string { return "open-once" }

func (s *OpenOnce) Reset() { s.opened = false }

func (s *OpenOnce) OnBar(*backtest.Context, market.Bar) (*sim.Signal, error) {
	if s.opened {
		return nil, nil
	}
	s.opened = true
	return &sim.Signal{Side: sim.Buy, Quantity: s.quantity}, nil
}
