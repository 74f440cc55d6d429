package ws

import "github.com/shopspring/decimal"

// Frame types exchanged with the brokerage bridge.
const (
	frameTick        = "tick"
	frameOrderStatus = "order_status"
	framePlaceOrder  = "place_order"
	frameCancelOrder = "cancel_order"
	frameCancelAll   = "cancel_all"
	frameSubscribe   = "subscribe"
)

// inboundFrame is the union of messages the bridge sends us.
type inboundFrame struct {
	Type string `json:"type"`

	// tick fields
	Symbol string          `json:"symbol,omitempty"`
	Last   decimal.Decimal `json:"last,omitempty"`
	Bid    decimal.Decimal `json:"bid,omitempty"`
	Ask    decimal.Decimal `json:"ask,omitempty"`

	// order_status fields
	OrderID      string          `json:"order_id,omitempty"`
	Status       string          `json:"status,omitempty"`
	FilledQty    decimal.Decimal `json:"filled_qty,omitempty"`
	AvgFillPrice decimal.Decimal `json:"avg_fill_price,omitempty"`
}

// outboundFrame is the union of messages we send to the bridge.
type outboundFrame struct {
	Type string `json:"type"`

	// place_order fields
	OrderID     string          `json:"order_id,omitempty"`
	Symbol      string          `json:"symbol,omitempty"`
	Side        string          `json:"side,omitempty"`
	Quantity    int64           `json:"quantity,omitempty"`
	LimitPrice  decimal.Decimal `json:"limit_price,omitempty"`
	TimeInForce string          `json:"time_in_force,omitempty"`
	OutsideRTH  bool            `json:"outside_rth,omitempty"`

	// subscribe fields
	Account string `json:"account,omitempty"`
}
