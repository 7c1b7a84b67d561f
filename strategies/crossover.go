package strategies

import (
	"fmt"

	"marketsim/backtest"
	"marketsim/indicators"
	"marketsim/market"
	"marketsim/sim"
)

func init() {
	Register("sma-cross", func(params map[string]any) (backtest.Strategy, error) {
		var p CrossoverParams
		if err := DecodeParams(params, &p); err != nil {
			return nil, err
		}
		return NewSMACross(p)
	})
	Register("ema-cross", func(params map[string]any) (backtest.Strategy, error) {
		var p CrossoverParams
		if err := DecodeParams(params, &p); err != nil {
			return nil, err
		}
		return NewEMACross(p)
	})
}

type CrossoverParams struct {
	Fast     int   `yaml:"fast"`
	Slow     int   `yaml:"slow"`
	Quantity int64 `yaml:"quantity"`
}

func (p CrossoverParams) validate(kind string) error {
	if p.Fast <= 0 || p.Slow <= 0 {
		return fmt.Errorf("strategies: %s: periods must be positive (fast=%d slow=%d)", kind, p.Fast, p.Slow)
	}
	if p.Fast >= p.Slow {
		return fmt.Errorf("strategies: %s: fast period %d must be shorter than slow %d", kind, p.Fast, p.Slow)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("strategies: %s: quantity must be positive, got %d", kind, p.Quantity)
	}
	return nil
}

// NewSMACross trades simple moving average crossovers. Defaults: 10/20.
func NewSMACross(p CrossoverParams) (backtest.Strategy, error) {
	if p.Fast == 0 {
		p.Fast = 10
	}
	if p.Slow == 0 {
		p.Slow = 20
	}
	if err := p.validate("sma-cross"); err != nil {
		return nil, err
	}
	return &crossover{
		name:     "sma-cross",
		fast:     indicators.NewMA(p.Fast),
		slow:     indicators.NewMA(p.Slow),
		quantity: p.Quantity,
	}, nil
}

// NewEMACross trades exponential moving average crossovers. Defaults: 20/50.
func NewEMACross(p CrossoverParams) (backtest.Strategy, error) {
	if p.Fast == 0 {
		p.Fast = 20
	}
	if p.Slow == 0 {
		p.Slow = 50
	}
	if err := p.validate("ema-cross"); err != nil {
		return nil, err
	}
	return &crossover{
		name:     "ema-cross",
		fast:     indicators.NewEMA(p.Fast),
		slow:     indicators.NewEMA(p.Slow),
		quantity: p.Quantity,
	}, nil
}

// crossover buys when the fast average crosses above the slow one and closes
// the position on the opposite cross. Entries happen only on a cross, never
// on a standing condition, so a run that starts above the slow average stays
// flat until the next genuine cross.
type crossover struct {
	name     string
	fast     indicators.Indicator
	slow     indicators.Indicator
	quantity int64

	lastDiff     float64
	haveLastDiff bool
}

func (s *crossover) Name() string { return s.name }

func (s *crossover) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.lastDiff = 0
	s.haveLastDiff = false
}

func (s *crossover) OnBar(ctx *backtest.Context, bar market.Bar) (*sim.Signal, error) {
	s.fast.Update(bar)
	s.slow.Update(bar)
	if !s.fast.Ready() || !s.slow.Ready() {
		return nil, nil
	}

	diff := s.fast.Value() - s.slow.Value()
	if !s.haveLastDiff {
		s.lastDiff = diff
		s.haveLastDiff = true
		return nil, nil
	}

	bullCross := diff > 0 && s.lastDiff <= 0
	bearCross := diff < 0 && s.lastDiff >= 0
	// Update lastDiff always so a cross never fires twice.
	s.lastDiff = diff

	pos, held := ctx.Position()
	switch {
	case bullCross && !held:
		return &sim.Signal{Side: sim.Buy, Quantity: s.quantity}, nil
	case bearCross && held:
		return &sim.Signal{Side: sim.Sell, Quantity: pos.Quantity}, nil
	}
	return nil, nil
}
