package engine

import (
	"log/slog"
	"time"

	"trader_go/internal/domain"
	"trader_go/internal/event"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Public command surface. Each call enqueues a CommandEvent; nothing executes
// on the caller's goroutine.

// OpenPosition requests a new position sized at percentage of budget.
func (e *Engine) OpenPosition(percentage int) {
	e.enqueueCommand(event.CmdOpenPosition, percentage, "")
}

// AddToPosition requests additional shares sized at percentage of budget.
func (e *Engine) AddToPosition(percentage int) {
	e.enqueueCommand(event.CmdAddToPosition, percentage, "")
}

// ClosePosition requests selling percentage of the held position.
func (e *Engine) ClosePosition(percentage int) {
	e.enqueueCommand(event.CmdClosePosition, percentage, "")
}

// CancelAllOrders requests cancellation of every working order for the
// active symbol.
func (e *Engine) CancelAllOrders() {
	e.enqueueCommand(event.CmdCancelAll, 0, "")
}

// SetSymbol requests switching the active symbol. Rejected while holding
// a position.
func (e *Engine) SetSymbol(symbol string) {
	e.enqueueCommand(event.CmdSetSymbol, 0, symbol)
}

func (e *Engine) enqueueCommand(command string, percentage int, symbol string) {
	e.inbox <- &event.CommandEvent{
		BaseEvent:  event.BaseEvent{Ts: time.Now().UnixMicro()},
		Command:    command,
		Percentage: percentage,
		Symbol:     symbol,
	}
}

func (e *Engine) handleCommand(ev *event.CommandEvent) {
	if ev.Command == event.CmdSetSymbol {
		e.setSymbol(ev.Symbol)
		return
	}

	// Trading intents fail closed while the gateway is down. No retry: the
	// user re-issues the hotkey once connectivity returns.
	if !e.connected {
		e.warn("Broker gateway is not connected")
		return
	}

	switch ev.Command {
	case event.CmdOpenPosition:
		e.openPosition(ev.Percentage)
	case event.CmdAddToPosition:
		e.addToPosition(ev.Percentage)
	case event.CmdClosePosition:
		e.closePosition(ev.Percentage)
	case event.CmdCancelAll:
		e.cancelAllOrders()
	default:
		slog.Warn("Unknown command", slog.String("command", ev.Command))
	}
}

func (e *Engine) openPosition(percentage int) {
	if e.symbol == "" {
		e.warn("No symbol selected")
		return
	}

	if e.position().Quantity.IsPositive() {
		e.warn("Cannot open new position. Position already exists. Use Add to increase position.")
		return
	}

	shares := e.sharesFor(percentage)
	if shares <= 0 {
		if !e.quote.HasLast() {
			e.warn("Market data not available yet. Wait for price updates.")
		} else {
			e.warn("Calculated share quantity is 0. Check your budget settings.")
		}
		return
	}

	price := e.buyLimitPrice()
	if e.buySlot.Occupied() {
		// A fresh open supersedes the working buy entirely: new size, new price.
		e.replaceOrder(&e.buySlot, domain.SideBuy, shares, price)
	} else {
		e.placeOrder(domain.SideBuy, shares, price)
	}
}

func (e *Engine) addToPosition(percentage int) {
	if e.symbol == "" {
		e.warn("No symbol selected")
		return
	}

	pos := e.position()
	if !pos.Quantity.IsPositive() {
		e.warn("No open position. Use Open to create a position first.")
		return
	}

	additional := e.sharesFor(percentage)
	if additional <= 0 {
		if !e.quote.HasLast() {
			e.warn("Market data not available yet. Wait for price updates.")
		} else {
			e.warn("Calculated share quantity is 0. Check your budget settings.")
		}
		return
	}

	// Exposure check: held and pending shares at the last trade price, the
	// increment at its actual limit price.
	price := e.buyLimitPrice()
	pendingQty := e.pendingBuyQuantity()
	currentValue := pos.Quantity.Mul(e.quote.Last)
	pendingValue := decimal.NewFromInt(pendingQty).Mul(e.quote.Last)
	additionalValue := decimal.NewFromInt(additional).Mul(price)

	if currentValue.Add(pendingValue).Add(additionalValue).GreaterThan(e.settings.Budget()) {
		e.warn("Cannot exceed 100% of budget")
		return
	}

	if e.buySlot.Occupied() {
		// Adds are cumulative with the working buy.
		e.replaceOrder(&e.buySlot, domain.SideBuy, pendingQty+additional, price)
	} else {
		e.placeOrder(domain.SideBuy, additional, price)
	}
}

func (e *Engine) closePosition(percentage int) {
	if e.symbol == "" {
		e.warn("No symbol selected")
		return
	}

	pos := e.position()
	if !pos.Quantity.IsPositive() {
		e.warn("No position to close")
		return
	}

	sharesToSell := pos.Quantity.
		Mul(decimal.NewFromInt(int64(percentage))).
		Div(decimal.NewFromInt(100)).
		IntPart()
	if sharesToSell <= 0 {
		return
	}

	// Each close restarts the sell from the current bid at the baseline
	// offset; a prior partial close in flight is cancelled, not accumulated.
	if e.sellSlot.Occupied() {
		e.requestCancel(e.sellSlot.OrderID())
		e.sellSlot.Clear()
	}

	e.sellChaseOffsetCents = e.settings.BidOffsetCents()
	e.placeOrder(domain.SideSell, sharesToSell, e.sellLimitPrice())
}

func (e *Engine) cancelAllOrders() {
	if e.buySlot.Occupied() {
		e.requestCancel(e.buySlot.OrderID())
		e.buySlot.Clear()
	}

	if e.sellSlot.Occupied() {
		e.requestCancel(e.sellSlot.OrderID())
		e.sellSlot.Clear()
	}

	// Sweep any other working order for the symbol (superseded orders whose
	// terminal status has not arrived yet).
	for id, o := range e.orders {
		if o.Symbol == e.symbol && o.IsPending() {
			e.requestCancel(id)
		}
	}
}

func (e *Engine) setSymbol(symbol string) {
	if symbol == e.symbol {
		return
	}

	if e.symbol != "" && e.position().Quantity.IsPositive() {
		e.warn("Cannot switch symbols while holding a position. Close all positions first.")
		return
	}

	slog.Info("Switching active symbol",
		slog.String("from", e.symbol), slog.String("to", symbol))

	// A symbol session owns its quote, orders and position; switching
	// discards them all.
	e.symbol = symbol
	e.quote = domain.Quote{}
	e.orders = make(map[string]*domain.Order)
	e.positions = make(map[string]*domain.Position)
	e.cancelSent = make(map[string]struct{})
	e.buySlot.Clear()
	e.sellSlot.Clear()
	e.sellChaseOffsetCents = e.settings.BidOffsetCents()
}

// pendingBuyQuantity returns the working buy order's share count, 0 if none.
func (e *Engine) pendingBuyQuantity() int64 {
	if !e.buySlot.Occupied() {
		return 0
	}
	if o, ok := e.orders[e.buySlot.OrderID()]; ok && o.IsPending() {
		return o.Quantity
	}
	return 0
}

// requestCancel sends a cancel to the gateway at most once per order id.
// The id stays marked until its terminal status arrives.
func (e *Engine) requestCancel(orderID string) {
	if _, sent := e.cancelSent[orderID]; sent {
		return
	}
	e.cancelSent[orderID] = struct{}{}
	if err := e.gateway.CancelOrder(orderID); err != nil {
		slog.Error("Cancel request failed",
			slog.String("order_id", orderID), slog.Any("error", err))
	}
}

// placeOrder sends a new limit order and tracks it. The slot pointer is
// updated before any notification so no later handler can observe a stale id.
func (e *Engine) placeOrder(side string, quantity int64, limitPrice decimal.Decimal) string {
	tif, outsideRTH := e.sessionTIF()

	req := domain.OrderRequest{
		ID:          uuid.NewString(),
		Symbol:      e.symbol,
		Side:        side,
		Quantity:    quantity,
		LimitPrice:  limitPrice,
		TimeInForce: tif,
		OutsideRTH:  outsideRTH,
	}

	slog.Info("Placing order",
		slog.String("side", side),
		slog.String("symbol", e.symbol),
		slog.Int64("qty", quantity),
		slog.String("price", limitPrice.StringFixed(2)),
		slog.String("tif", tif))

	orderID, err := e.gateway.PlaceOrder(req)
	if err != nil {
		e.warn("Order rejected by gateway: " + err.Error())
		return ""
	}

	order := &domain.Order{
		ID:          orderID,
		Symbol:      e.symbol,
		Side:        side,
		Quantity:    quantity,
		LimitPrice:  limitPrice,
		TimeInForce: tif,
		OutsideRTH:  outsideRTH,
		Status:      domain.OrderStatusPending,
		CreatedAt:   e.now(),
	}
	e.orders[orderID] = order

	if side == domain.SideBuy {
		e.buySlot.Set(orderID)
	} else {
		e.sellSlot.Set(orderID)
	}

	if e.metrics != nil {
		e.metrics.RecordOrderPlaced()
	}
	e.notifyOrderPlaced(order)
	return orderID
}

// replaceOrder is cancel-then-place-new, never an in-place amend. The old id
// lives on in the order book until its Cancelled status arrives; the slot
// stops tracking it immediately.
func (e *Engine) replaceOrder(s *slot, side string, quantity int64, limitPrice decimal.Decimal) {
	if !s.Occupied() {
		return
	}

	e.requestCancel(s.OrderID())
	s.Clear()

	e.placeOrder(side, quantity, limitPrice)
	if e.metrics != nil {
		e.metrics.RecordOrderReplaced()
	}
}
