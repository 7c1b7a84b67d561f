package strategies

import (
	"fmt"

	"marketsim/backtest"
	"marketsim/indicators"
	"marketsim/market"
	"marketsim/sim"
)

func init() {
	Register("rsi-reversion", func(params map[string]any) (backtest.Strategy, error) {
		var p RSIReversionParams
		if err := DecodeParams(params, &p); err != nil {
			return nil, err
		}
		return NewRSIReversion(p)
	})
}

type RSIReversionParams struct {
	Period     int     `yaml:"period"`
	Oversold   float64 `yaml:"oversold"`
	Overbought float64 `yaml:"overbought"`
	Quantity   int64   `yaml:"quantity"`
}

// NewRSIReversion buys oversold bars and sells the position back once the
// RSI recovers past the overbought line. Defaults: 14 period, 30/70 bands.
func NewRSIReversion(p RSIReversionParams) (backtest.Strategy, error) {
	if p.Period == 0 {
		p.Period = 14
	}
	if p.Oversold == 0 {
		p.Oversold = 30
	}
	if p.Overbought == 0 {
		p.Overbought = 70
	}
	if p.Period < 2 {
		return nil, fmt.Errorf("strategies: rsi-reversion: period must be at least 2, got %d", p.Period)
	}
	if p.Oversold >= p.Overbought {
		return nil, fmt.Errorf("strategies: rsi-reversion: oversold %.1f must sit below overbought %.1f",
			p.Oversold, p.Overbought)
	}
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("strategies: rsi-reversion: quantity must be positive, got %d", p.Quantity)
	}
	return &rsiReversion{
		rsi:        indicators.NewRSI(p.Period),
		oversold:   p.Oversold,
		overbought: p.Overbought,
		quantity:   p.Quantity,
	}, nil
}

type rsiReversion struct {
	rsi        *indicators.RSI
	oversold   float64
	overbought float64
	quantity   int64
}

func (s *rsiReversion) Name() string { return "rsi-reversion" }

func (s *rsiReversion) Reset() { s.rsi.Reset() }

func (s *rsiReversion) OnBar(ctx *backtest.Context, bar market.Bar) (*sim.Signal, error) {
	s.rsi.Update(bar)
	if !s.rsi.Ready() {
		return nil, nil
	}

	value := s.rsi.Value()
	pos, held := ctx.Position()
	switch {
	case value < s.oversold && !held:
		return &sim.Signal{Side: sim.Buy, Quantity: s.quantity}, nil
	case value > s.overbought && held:
		return &sim.Signal{Side: sim.Sell, Quantity: pos.Quantity}, nil
	}
	return nil, nil
}
