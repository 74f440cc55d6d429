package engine

import (
	"log/slog"

	"trader_go/internal/domain"
	"trader_go/internal/event"

	"github.com/shopspring/decimal"
)

// handleOrderStatus is the single point where broker status events mutate
// Order and Position state. Transitions are Pending -> {Filled, Cancelled},
// terminal either way; anything else for that id is dropped.
func (e *Engine) handleOrderStatus(ev *event.OrderStatusEvent) {
	order, ok := e.orders[ev.OrderID]
	if !ok {
		// Broker events may reference ids from before a symbol switch or
		// from ids this session never placed. Deliberately silent.
		slog.Debug("Status event for unknown order", slog.String("order_id", ev.OrderID))
		if e.metrics != nil {
			e.metrics.RecordStaleEvent()
		}
		return
	}
	if order.IsTerminal() {
		return
	}

	switch ev.Status {
	case domain.OrderStatusFilled:
		e.applyFill(order, ev)
	case domain.OrderStatusCancelled:
		e.applyCancel(order)
	default:
		// Still pending at the broker; nothing to reconcile.
	}
}

func (e *Engine) applyFill(order *domain.Order, ev *event.OrderStatusEvent) {
	filledQty := ev.FilledQty
	if !filledQty.IsPositive() {
		filledQty = decimal.NewFromInt(order.Quantity)
	}

	order.Status = domain.OrderStatusFilled
	order.FilledQty = filledQty
	order.FillPrice = ev.AvgFillPrice
	order.FilledAt = e.now()

	pos := e.positionFor(order.Symbol)
	if order.IsBuy() {
		pos.ApplyBuyFill(filledQty, ev.AvgFillPrice)
		if e.buySlot.Is(order.ID) {
			e.buySlot.Clear()
		}
	} else {
		pos.ApplySellFill(filledQty)
		if e.sellSlot.Is(order.ID) {
			e.sellSlot.Clear()
			e.sellChaseOffsetCents = e.settings.BidOffsetCents()
		}
	}

	delete(e.cancelSent, order.ID)

	slog.Info("Order filled",
		slog.String("order_id", order.ID),
		slog.String("side", order.Side),
		slog.String("qty", filledQty.String()),
		slog.String("price", ev.AvgFillPrice.StringFixed(2)))

	if e.metrics != nil {
		e.metrics.RecordOrderFilled()
	}
	e.persistOrder(order)
	e.notifyOrderUpdated(order)
	e.notifyPositionUpdated(pos)
}

func (e *Engine) applyCancel(order *domain.Order) {
	order.Status = domain.OrderStatusCancelled

	// Slot comparison is the safeguard for the replace race: a Cancelled
	// transition on a superseded id must not clear the slot now tracking
	// the replacement order.
	if e.buySlot.Is(order.ID) {
		e.buySlot.Clear()
	}
	if e.sellSlot.Is(order.ID) {
		e.sellSlot.Clear()
		e.sellChaseOffsetCents = e.settings.BidOffsetCents()
	}

	delete(e.cancelSent, order.ID)

	if e.metrics != nil {
		e.metrics.RecordOrderCancelled()
	}
	e.persistOrder(order)
	e.notifyOrderCancelled(order.ID)
	e.notifyOrderUpdated(order)
}

// persistOrder writes a terminal order to the audit history. Best effort:
// a storage failure never interrupts reconciliation.
func (e *Engine) persistOrder(order *domain.Order) {
	if e.history == nil {
		return
	}
	if err := e.history.SaveOrderRecord(domain.NewOrderRecord(order)); err != nil {
		slog.Error("Failed to persist order record",
			slog.String("order_id", order.ID), slog.Any("error", err))
	}
}
