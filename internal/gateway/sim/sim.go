// Package sim provides an in-memory simulated broker gateway. It accepts the
// same order flow as the real bridge but fills against quotes pushed through
// PublishTick, so the engine can run offline and tests can script exact
// market sequences.
package sim

import (
	"context"
	"sync"
	"time"

	"trader_go/internal/domain"
	"trader_go/internal/event"

	"github.com/shopspring/decimal"
)

type restingOrder struct {
	req domain.OrderRequest
}

// Gateway is the simulated broker. Resting limit orders fill when a
// published quote crosses them: buys at ask <= limit, sells at bid >= limit.
type Gateway struct {
	inbox chan<- event.Event

	mu        sync.Mutex
	connected bool
	resting   map[string]*restingOrder
}

// NewGateway creates a simulator that delivers events into the engine inbox.
func NewGateway(inbox chan<- event.Event) *Gateway {
	return &Gateway{
		inbox:   inbox,
		resting: make(map[string]*restingOrder),
	}
}

// Connect marks the gateway connected and notifies the engine.
func (g *Gateway) Connect(ctx context.Context) error {
	g.setConnected(true)
	return nil
}

// Disconnect marks the gateway disconnected and notifies the engine.
func (g *Gateway) Disconnect() {
	g.setConnected(false)
}

func (g *Gateway) setConnected(connected bool) {
	g.mu.Lock()
	g.connected = connected
	g.mu.Unlock()

	g.inbox <- &event.ConnectionEvent{
		BaseEvent: event.BaseEvent{Ts: time.Now().UnixMicro()},
		Connected: connected,
	}
}

// IsConnected reports simulated connectivity.
func (g *Gateway) IsConnected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

// PlaceOrder accepts a limit order and lets it rest until a crossing quote.
func (g *Gateway) PlaceOrder(req domain.OrderRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.connected {
		return "", domain.ErrGatewayDisconnected
	}
	g.resting[req.ID] = &restingOrder{req: req}
	return req.ID, nil
}

// CancelOrder removes a resting order and reports the cancellation back
// asynchronously, like a real broker acknowledgement.
func (g *Gateway) CancelOrder(orderID string) error {
	g.mu.Lock()
	if !g.connected {
		g.mu.Unlock()
		return domain.ErrGatewayDisconnected
	}
	_, ok := g.resting[orderID]
	if ok {
		delete(g.resting, orderID)
	}
	g.mu.Unlock()

	if !ok {
		return domain.ErrUnknownOrder
	}

	// The engine cancels synchronously from its event loop; the ack must be
	// delivered off this goroutine so it never blocks on its own inbox.
	go g.sendStatus(orderID, domain.OrderStatusCancelled, decimal.Zero, decimal.Zero)
	return nil
}

// CancelAllOrders cancels every resting order.
func (g *Gateway) CancelAllOrders() error {
	g.mu.Lock()
	ids := make([]string, 0, len(g.resting))
	for id := range g.resting {
		ids = append(ids, id)
	}
	g.resting = make(map[string]*restingOrder)
	g.mu.Unlock()

	go func() {
		for _, id := range ids {
			g.sendStatus(id, domain.OrderStatusCancelled, decimal.Zero, decimal.Zero)
		}
	}()
	return nil
}

// PublishTick pushes a quote to the engine and fills any resting order the
// quote crosses. Fills are full and at the limit price.
func (g *Gateway) PublishTick(symbol string, last, bid, ask decimal.Decimal) {
	tick := event.AcquireTickEvent()
	tick.Ts = time.Now().UnixMicro()
	tick.Symbol = symbol
	tick.Last = last
	tick.Bid = bid
	tick.Ask = ask
	g.inbox <- tick

	g.mu.Lock()
	var fills []domain.OrderRequest
	for id, ro := range g.resting {
		if ro.req.Symbol != symbol {
			continue
		}
		crossed := (ro.req.Side == domain.SideBuy && ask.IsPositive() && ask.LessThanOrEqual(ro.req.LimitPrice)) ||
			(ro.req.Side == domain.SideSell && bid.IsPositive() && bid.GreaterThanOrEqual(ro.req.LimitPrice))
		if crossed {
			fills = append(fills, ro.req)
			delete(g.resting, id)
		}
	}
	g.mu.Unlock()

	for _, req := range fills {
		g.sendStatus(req.ID, domain.OrderStatusFilled,
			decimal.NewFromInt(req.Quantity), req.LimitPrice)
	}
}

// RestingCount returns the number of working orders in the simulator.
func (g *Gateway) RestingCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.resting)
}

func (g *Gateway) sendStatus(orderID, status string, filledQty, avgFillPrice decimal.Decimal) {
	ev := event.AcquireOrderStatusEvent()
	ev.Ts = time.Now().UnixMicro()
	ev.OrderID = orderID
	ev.Status = status
	ev.FilledQty = filledQty
	ev.AvgFillPrice = avgFillPrice
	g.inbox <- ev
}
