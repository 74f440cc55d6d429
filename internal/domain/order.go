package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a single broker order for the active symbol.
// Orders are created by the engine on placement and mutated only by the
// status-reconciliation path. Terminal orders are kept for history.
type Order struct {
	ID          string
	Symbol      string
	Side        string // "BUY", "SELL"
	Quantity    int64  // shares
	LimitPrice  decimal.Decimal
	TimeInForce string // "DAY", "GTC"
	OutsideRTH  bool
	Status      string // "PENDING", "FILLED", "CANCELLED"
	CreatedAt   time.Time
	FilledQty   decimal.Decimal
	FillPrice   decimal.Decimal
	FilledAt    time.Time
}

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	TIFDay = "DAY"
	TIFGTC = "GTC"

	OrderStatusPending   = "PENDING"
	OrderStatusFilled    = "FILLED"
	OrderStatusCancelled = "CANCELLED"
)

func (o *Order) IsBuy() bool  { return o.Side == SideBuy }
func (o *Order) IsSell() bool { return o.Side == SideSell }

// IsPending checks if the order is still working at the broker.
func (o *Order) IsPending() bool { return o.Status == OrderStatusPending }

func (o *Order) IsFilled() bool    { return o.Status == OrderStatusFilled }
func (o *Order) IsCancelled() bool { return o.Status == OrderStatusCancelled }

// IsTerminal reports whether no further status transitions are accepted.
func (o *Order) IsTerminal() bool { return o.IsFilled() || o.IsCancelled() }

// Total returns the notional value of the order: fill price once filled,
// limit price while working.
func (o *Order) Total() decimal.Decimal {
	if o.IsFilled() {
		return o.FillPrice.Mul(o.FilledQty)
	}
	return o.LimitPrice.Mul(decimal.NewFromInt(o.Quantity))
}

// OrderRequest is the placement payload handed to a Gateway.
type OrderRequest struct {
	ID          string
	Symbol      string
	Side        string
	Quantity    int64
	LimitPrice  decimal.Decimal
	TimeInForce string
	OutsideRTH  bool
}
