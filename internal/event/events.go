package event

import "github.com/shopspring/decimal"

// Event type tags. The engine dispatches on these in its single-threaded loop.
const (
	TypeTick        = "TICK"
	TypeOrderStatus = "ORDER_STATUS"
	TypeConnection  = "CONNECTION"
	TypeCommand     = "COMMAND"
)

// Event is the tagged variant delivered on the engine inbox. Gateway workers,
// the chase timer and user commands all funnel through this one channel.
type Event interface {
	GetType() string
	GetTs() int64
}

// BaseEvent carries common bookkeeping fields.
type BaseEvent struct {
	Seq uint64 // assigned by the engine on receipt
	Ts  int64  // unix microseconds at the producer
}

func (b *BaseEvent) GetTs() int64 { return b.Ts }

// TickEvent is a market data update for one symbol.
type TickEvent struct {
	BaseEvent
	Symbol string
	Last   decimal.Decimal
	Bid    decimal.Decimal
	Ask    decimal.Decimal
}

func (e *TickEvent) GetType() string { return TypeTick }

// OrderStatusEvent reports a broker-side order transition.
type OrderStatusEvent struct {
	BaseEvent
	OrderID      string
	Status       string // domain.OrderStatus* values
	FilledQty    decimal.Decimal
	AvgFillPrice decimal.Decimal
}

func (e *OrderStatusEvent) GetType() string { return TypeOrderStatus }

// ConnectionEvent signals gateway connectivity changes.
type ConnectionEvent struct {
	BaseEvent
	Connected bool
}

func (e *ConnectionEvent) GetType() string { return TypeConnection }

// Command kinds carried by CommandEvent.
const (
	CmdOpenPosition  = "OPEN_POSITION"
	CmdAddToPosition = "ADD_TO_POSITION"
	CmdClosePosition = "CLOSE_POSITION"
	CmdCancelAll     = "CANCEL_ALL"
	CmdSetSymbol     = "SET_SYMBOL"
)

// CommandEvent is a user intent queued into the engine loop. Commands never
// execute on the caller's goroutine.
type CommandEvent struct {
	BaseEvent
	Command    string
	Percentage int    // for open/add/close
	Symbol     string // for set-symbol
}

func (e *CommandEvent) GetType() string { return TypeCommand }
