package engine

import (
	"log/slog"

	"trader_go/internal/domain"
	"trader_go/internal/event"
)

// handleTick overwrites the quote and runs the buy-side chase. Buys only ever
// chase upward: a falling ask is favorable and leaves the order alone.
func (e *Engine) handleTick(ev *event.TickEvent) {
	if e.symbol == "" || ev.Symbol != e.symbol {
		// Tick for a stale subscription after a symbol switch.
		return
	}

	e.quote.Last = ev.Last
	e.quote.Bid = ev.Bid
	e.quote.Ask = ev.Ask

	if !e.buySlot.Occupied() {
		return
	}
	order, ok := e.orders[e.buySlot.OrderID()]
	if !ok || !order.IsPending() {
		return
	}

	// Market ran away upward past our limit; re-peg to the new ask.
	if e.quote.Ask.GreaterThan(order.LimitPrice) {
		slog.Debug("Buy chase: ask moved above working limit",
			slog.String("ask", e.quote.Ask.String()),
			slog.String("limit", order.LimitPrice.String()))
		e.replaceOrder(&e.buySlot, domain.SideBuy, order.Quantity, e.buyLimitPrice())
	}
}

// checkSellChase runs on the periodic timer, independent of tick arrival.
// While the bid sits below the resting sell's limit the offset doubles each
// check, so an unfilled close chases the falling bid ever more aggressively.
// Caller holds the state lock.
func (e *Engine) checkSellChase() {
	if !e.sellSlot.Occupied() {
		return
	}
	order, ok := e.orders[e.sellSlot.OrderID()]
	if !ok || !order.IsPending() {
		return
	}

	if e.quote.Bid.GreaterThanOrEqual(order.LimitPrice) {
		return
	}

	next := e.sellChaseOffsetCents * 2
	if e.maxChaseOffsetCents > 0 && next > e.maxChaseOffsetCents {
		next = e.maxChaseOffsetCents
	}
	e.sellChaseOffsetCents = next
	if e.metrics != nil {
		e.metrics.RecordChaseEscalation()
	}

	slog.Debug("Sell chase: bid moved below working limit",
		slog.String("bid", e.quote.Bid.String()),
		slog.String("limit", order.LimitPrice.String()),
		slog.Int("offset_cents", next))

	e.replaceOrder(&e.sellSlot, domain.SideSell, order.Quantity, e.sellLimitPrice())
}
