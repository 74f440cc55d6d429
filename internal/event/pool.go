package event

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Pools for the two high-frequency event kinds. Ticks arrive continuously
// while a symbol is subscribed; pooling keeps the hotpath allocation-free.
//
// Usage:
//
//	ev := AcquireTickEvent()
//	ev.Symbol = "AAPL"
//	// ... send, process ...
//	ReleaseTickEvent(ev)
var tickPool = sync.Pool{
	New: func() interface{} {
		return &TickEvent{}
	},
}

// AcquireTickEvent gets a TickEvent from the pool.
// The returned event has zero values and must be initialized.
func AcquireTickEvent() *TickEvent {
	return tickPool.Get().(*TickEvent)
}

// ReleaseTickEvent returns a TickEvent to the pool after processing.
func ReleaseTickEvent(ev *TickEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.Symbol = ""
	ev.Last = decimal.Decimal{}
	ev.Bid = decimal.Decimal{}
	ev.Ask = decimal.Decimal{}

	tickPool.Put(ev)
}

// OrderStatusEvent pool
var orderStatusPool = sync.Pool{
	New: func() interface{} {
		return &OrderStatusEvent{}
	},
}

// AcquireOrderStatusEvent gets an OrderStatusEvent from the pool.
func AcquireOrderStatusEvent() *OrderStatusEvent {
	return orderStatusPool.Get().(*OrderStatusEvent)
}

// ReleaseOrderStatusEvent returns an OrderStatusEvent to the pool.
func ReleaseOrderStatusEvent(ev *OrderStatusEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.OrderID = ""
	ev.Status = ""
	ev.FilledQty = decimal.Decimal{}
	ev.AvgFillPrice = decimal.Decimal{}

	orderStatusPool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 1000

	ticks := make([]*TickEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		ticks = append(ticks, AcquireTickEvent())
	}
	for _, ev := range ticks {
		ReleaseTickEvent(ev)
	}

	statuses := make([]*OrderStatusEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		statuses = append(statuses, AcquireOrderStatusEvent())
	}
	for _, ev := range statuses {
		ReleaseOrderStatusEvent(ev)
	}
}
