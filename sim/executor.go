package sim

import (
	"fmt"
	"time"

	"marketsim/internal/id"
	"marketsim/risk"
)

// Fill is an executed order. Price already includes slippage; Commission is
// the charge on the slipped notional. Sell fills carry the realized Trade.
type Fill struct {
	Symbol     string
	Side       Side
	Quantity   int64
	Price      float64
	Commission float64
	Time       time.Time
	Trade      *Trade
}

// Executor turns orders into fills against a ledger. Slippage is always
// adverse: buys fill above the reference price, sells below it. Commission
// is charged on the slipped notional and never netted into trade PnL.
//
// When Limits is set, buys additionally pass through the risk gate before
// any cash is committed. Sells reduce exposure and are never risk-gated.
type Executor struct {
	CommissionRate float64
	SlippageRate   float64
	Limits         *risk.Limits
}

// Execute validates o, prices it, and applies the resulting fill to the
// ledger. LIMIT and STOP orders whose trigger condition is not met on this
// bar return ErrNotTriggered and leave the ledger untouched. Orders the
// simulator refuses outright return *RejectedOrderError. Partial fills are
// never produced.
func (e Executor) Execute(l *Ledger, o Order) (Fill, error) {
	if !o.Side.Valid() {
		return Fill{}, reject(o, ReasonUnknownSide, fmt.Sprintf("side %q", o.Side))
	}
	if o.Quantity <= 0 {
		return Fill{}, reject(o, ReasonNonPositiveQuantity, fmt.Sprintf("quantity %d", o.Quantity))
	}
	if o.Ref <= 0 {
		return Fill{}, reject(o, ReasonNoPrice, "no reference price for symbol")
	}
	if err := e.checkTrigger(o); err != nil {
		return Fill{}, err
	}
	if err := e.checkRisk(l, o); err != nil {
		return Fill{}, err
	}

	px := e.fillPrice(o)
	commission := float64(o.Quantity) * px * e.CommissionRate

	fill := Fill{
		Symbol:     o.Symbol,
		Side:       o.Side,
		Quantity:   o.Quantity,
		Price:      px,
		Commission: commission,
		Time:       o.Time,
	}

	switch o.Side {
	case Buy:
		cost := float64(o.Quantity)*px + commission
		if cost > l.Cash() {
			return Fill{}, reject(o, ReasonInsufficientCash,
				fmt.Sprintf("cost %.4f exceeds cash %.4f", cost, l.Cash()))
		}
	case Sell:
		pos, ok := l.Position(o.Symbol)
		if !ok {
			return Fill{}, reject(o, ReasonInsufficientPosition, "no open position")
		}
		if o.Quantity > pos.Quantity {
			return Fill{}, reject(o, ReasonInsufficientPosition,
				fmt.Sprintf("selling %d, holding %d", o.Quantity, pos.Quantity))
		}
		fill.Trade = closeTrade(pos, fill)
	}

	if err := l.ApplyFill(fill); err != nil {
		return Fill{}, fmt.Errorf("sim: applying fill: %w", err)
	}
	return fill, nil
}

// checkTrigger enforces the kind-specific trigger against the bar close.
// Untriggered conditional orders lapse rather than reject.
func (e Executor) checkTrigger(o Order) error {
	switch o.Kind {
	case Market, "":
		return nil
	case Limit:
		if o.Limit <= 0 {
			return reject(o, ReasonNoPrice, "limit price not set")
		}
		if (o.Side == Buy && o.Ref <= o.Limit) || (o.Side == Sell && o.Ref >= o.Limit) {
			return nil
		}
		return ErrNotTriggered
	case Stop:
		if o.Stop <= 0 {
			return reject(o, ReasonNoPrice, "stop price not set")
		}
		if (o.Side == Buy && o.Ref >= o.Stop) || (o.Side == Sell && o.Ref <= o.Stop) {
			return nil
		}
		return ErrNotTriggered
	default:
		return reject(o, ReasonUnknownKind, fmt.Sprintf("kind %q", o.Kind))
	}
}

// checkRisk gates buys against the configured limits, valuing the portfolio
// with the order's reference price for its own symbol and average cost for
// the rest. Trade value uses the raw reference price, not the slipped fill.
func (e Executor) checkRisk(l *Ledger, o Order) error {
	if e.Limits == nil || !e.Limits.Enabled() || o.Side != Buy {
		return nil
	}
	prices := map[string]float64{o.Symbol: o.Ref}
	value, _ := l.MarkToMarket(prices)
	snap := risk.Snapshot{
		TotalValue: l.Cash() + value,
		Notional:   l.Notionals(prices),
	}
	if res := risk.CheckTrade(snap, o.Symbol, o.Quantity, o.Ref, *e.Limits); !res.Approved {
		return reject(o, ReasonRiskLimit, res.Reason())
	}
	return nil
}

func (e Executor) fillPrice(o Order) float64 {
	if o.Side == Buy {
		return o.Ref * (1 + e.SlippageRate)
	}
	return o.Ref * (1 - e.SlippageRate)
}

// closeTrade records the realized round trip for a sell fill against the
// position's weighted-average cost.
func closeTrade(pos Position, f Fill) *Trade {
	return &Trade{
		ID:         id.New(),
		Symbol:     f.Symbol,
		Side:       Sell,
		Quantity:   f.Quantity,
		EntryPrice: pos.AvgCost,
		ExitPrice:  f.Price,
		EntryTime:  pos.OpenTime,
		ExitTime:   f.Time,
		PnL:        (f.Price - pos.AvgCost) * float64(f.Quantity),
		PnLPct:     (f.Price - pos.AvgCost) / pos.AvgCost,
		Commission: f.Commission,
	}
}
