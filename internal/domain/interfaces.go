package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway is the execution endpoint the engine talks to. Placement and
// cancellation are fire-and-forget: the returned order id is the client-side
// id, and the trading outcome arrives later as an OrderStatusEvent on the
// engine inbox.
type Gateway interface {
	PlaceOrder(req OrderRequest) (string, error)
	CancelOrder(orderID string) error
	CancelAllOrders() error
	IsConnected() bool
}

// GatewayWorker is implemented by gateway transports that maintain a
// long-lived connection (websocket bridge, simulator loop).
type GatewayWorker interface {
	Gateway
	Connect(ctx context.Context) error
	Disconnect()
}

// SettingsProvider supplies the numeric trading parameters. Injected into
// the engine at construction so tests can pin deterministic values.
type SettingsProvider interface {
	Budget() decimal.Decimal
	AskOffsetCents() int
	BidOffsetCents() int
}
