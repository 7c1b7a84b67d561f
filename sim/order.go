// Package sim simulates order execution against a cash-and-positions ledger.
package sim

import "time"

// Side of an order: BUY opens or adds, SELL reduces or closes. Short selling
// is not modeled, so quantities are always non-negative.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// OrderKind selects how an order triggers against the current bar.
type OrderKind string

const (
	Market OrderKind = "MARKET"
	Limit  OrderKind = "LIMIT"
	Stop   OrderKind = "STOP"
)

// Signal is a strategy's request to trade. Signals are produced fresh each
// bar and never rest: an untriggered LIMIT or STOP lapses with the bar.
type Signal struct {
	Symbol   string
	Side     Side
	Quantity int64
	Kind     OrderKind // empty means MARKET
	Limit    float64   // LIMIT price, 0 when unset
	Stop     float64   // STOP trigger price, 0 when unset
}

// Order binds a signal to the bar being processed. It exists only during
// fill processing.
type Order struct {
	Signal
	Time time.Time
	// Ref is the reference price the fill derives from, the bar's close.
	Ref float64
}
