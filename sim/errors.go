package sim

import (
	"errors"
	"fmt"
)

// Rejection codes recorded on RejectedOrderError.
const (
	ReasonUnknownSide          = "unknown_side"
	ReasonUnknownKind          = "unknown_kind"
	ReasonNonPositiveQuantity  = "non_positive_quantity"
	ReasonNoPrice              = "no_price"
	ReasonInsufficientCash     = "insufficient_cash"
	ReasonInsufficientPosition = "insufficient_position"
	ReasonRiskLimit            = "risk_limit"
)

// ErrNotTriggered reports a LIMIT or STOP order whose trigger condition was
// not met on the current bar. Not a rejection: the order simply lapses.
var ErrNotTriggered = errors.New("sim: order not triggered")

// RejectedOrderError reports an order the simulator refused to fill. The
// simulation recovers from these: the caller logs the rejection and the bar
// loop continues. Partial fills are never modeled, an order either fills
// whole or is rejected whole.
type RejectedOrderError struct {
	Symbol   string
	Side     Side
	Quantity int64
	Code     string
	Msg      string
}

func (e *RejectedOrderError) Error() string {
	return fmt.Sprintf("sim: order rejected (%s): %s %s %d: %s",
		e.Code, e.Side, e.Symbol, e.Quantity, e.Msg)
}

func reject(o Order, code, msg string) *RejectedOrderError {
	return &RejectedOrderError{
		Symbol:   o.Symbol,
		Side:     o.Side,
		Quantity: o.Quantity,
		Code:     code,
		Msg:      msg,
	}
}
