package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"trader_go/internal/domain"
	"trader_go/internal/event"
	"trader_go/internal/infra"

	"github.com/shopspring/decimal"
)

const (
	defaultInboxSize     = 1024
	defaultChaseInterval = 100 * time.Millisecond
)

// HistoryWriter persists terminal orders for audit. Satisfied by
// storage.Storage; nil disables history.
type HistoryWriter interface {
	SaveOrderRecord(rec *domain.OrderRecord) error
}

// Listener observes engine state changes. Callbacks run on the engine
// goroutine and must return quickly.
type Listener interface {
	OrderPlaced(order domain.Order)
	OrderUpdated(order domain.Order)
	OrderCancelled(orderID string)
	PositionUpdated(symbol string, quantity, avgCost decimal.Decimal)
	Warning(message string)
}

// Config carries the engine's construction parameters.
type Config struct {
	InboxSize           int
	Gateway             domain.Gateway
	Settings            domain.SettingsProvider
	Metrics             *infra.Metrics
	History             HistoryWriter
	ChaseInterval       time.Duration
	MaxChaseOffsetCents int              // 0 = unbounded escalation
	Now                 func() time.Time // test hook
}

// Engine is the order execution core. It owns all trading state and mutates
// it exclusively from the single goroutine running the event loop; commands,
// gateway events and the chase timer all funnel through the inbox. The mutex
// exists only so external collaborators can take consistent snapshots.
type Engine struct {
	inbox    chan event.Event
	gateway  domain.Gateway
	settings domain.SettingsProvider
	metrics  *infra.Metrics
	history  HistoryWriter
	now      func() time.Time

	chaseInterval       time.Duration
	maxChaseOffsetCents int

	mu        sync.RWMutex
	symbol    string
	quote     domain.Quote
	connected bool
	orders    map[string]*domain.Order
	positions map[string]*domain.Position
	buySlot   slot
	sellSlot  slot

	// Escalating sell chase cushion, in cents. Reset to the configured
	// baseline on every user-initiated close and on sell slot clearing.
	sellChaseOffsetCents int

	// Order ids with an unacknowledged cancel request. Guards against
	// duplicate broker cancels until the terminal status arrives.
	cancelSent map[string]struct{}

	nextSeq   uint64
	listeners []Listener
}

// NewEngine creates the execution engine. Run must be started before any
// command can take effect.
func NewEngine(cfg Config) *Engine {
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = defaultInboxSize
	}
	if cfg.ChaseInterval <= 0 {
		cfg.ChaseInterval = defaultChaseInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		inbox:               make(chan event.Event, cfg.InboxSize),
		gateway:             cfg.Gateway,
		settings:            cfg.Settings,
		metrics:             cfg.Metrics,
		history:             cfg.History,
		now:                 cfg.Now,
		chaseInterval:       cfg.ChaseInterval,
		maxChaseOffsetCents: cfg.MaxChaseOffsetCents,
		connected:           cfg.Gateway != nil && cfg.Gateway.IsConnected(),
		orders:              make(map[string]*domain.Order),
		positions:           make(map[string]*domain.Position),
		cancelSent:          make(map[string]struct{}),
		nextSeq:             1,
	}
}

// Inbox returns the event channel. Gateway workers send events here.
func (e *Engine) Inbox() chan<- event.Event {
	return e.inbox
}

// AttachGateway sets the execution endpoint. The gateway is usually built
// after the engine because it needs the inbox; attach it before Run.
func (e *Engine) AttachGateway(gw domain.Gateway) {
	e.gateway = gw
	e.connected = gw != nil && gw.IsConnected()
}

// RegisterListener adds a state-change observer. Must be called before Run.
func (e *Engine) RegisterListener(l Listener) {
	e.listeners = append(e.listeners, l)
}

// Run starts the main event loop. This MUST be run in a single goroutine.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("Trading engine started")

	ticker := time.NewTicker(e.chaseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Trading engine stopping...")
			return
		case <-ticker.C:
			e.mu.Lock()
			e.checkSellChase()
			e.mu.Unlock()
		case ev := <-e.inbox:
			e.processEvent(ev)
		}
	}
}

func (e *Engine) processEvent(ev event.Event) {
	start := time.Now()

	e.mu.Lock()
	seq := e.nextSeq
	e.nextSeq++

	switch v := ev.(type) {
	case *event.TickEvent:
		v.Seq = seq
		e.handleTick(v)
	case *event.OrderStatusEvent:
		v.Seq = seq
		e.handleOrderStatus(v)
	case *event.ConnectionEvent:
		v.Seq = seq
		e.handleConnection(v)
	case *event.CommandEvent:
		v.Seq = seq
		e.handleCommand(v)
	default:
		slog.Warn("Unknown event type", slog.String("type", ev.GetType()))
	}
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordEvent(time.Since(start).Nanoseconds())
	}

	// Pooled events go back once fully processed.
	switch v := ev.(type) {
	case *event.TickEvent:
		event.ReleaseTickEvent(v)
	case *event.OrderStatusEvent:
		event.ReleaseOrderStatusEvent(v)
	}
}

func (e *Engine) handleConnection(ev *event.ConnectionEvent) {
	if e.connected == ev.Connected {
		return
	}
	e.connected = ev.Connected
	if e.metrics != nil {
		e.metrics.SetGatewayConnected(ev.Connected)
	}
	if ev.Connected {
		slog.Info("Gateway connected")
	} else {
		slog.Warn("Gateway disconnected; commands are blocked until reconnect")
	}
}

// position returns the tracked position for the active symbol, creating the
// zero entry on first use.
func (e *Engine) position() *domain.Position {
	return e.positionFor(e.symbol)
}

func (e *Engine) positionFor(symbol string) *domain.Position {
	p, ok := e.positions[symbol]
	if !ok {
		p = &domain.Position{Symbol: symbol}
		e.positions[symbol] = p
	}
	return p
}

// ======================================================================================
// External snapshot reads
// ======================================================================================

// Symbol returns the active symbol ("" when none selected).
func (e *Engine) Symbol() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.symbol
}

// Quote returns a copy of the latest market snapshot.
func (e *Engine) Quote() domain.Quote {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.quote
}

// Position returns a copy of the active symbol's position.
func (e *Engine) Position() domain.Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if p, ok := e.positions[e.symbol]; ok {
		return *p
	}
	return domain.Position{Symbol: e.symbol}
}

// Orders returns copies of all session orders, oldest first.
func (e *Engine) Orders() []domain.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]domain.Order, 0, len(e.orders))
	for _, o := range e.orders {
		result = append(result, *o)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// IsConnected reports the engine's view of gateway connectivity.
func (e *Engine) IsConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

// ChaseOffsetCents returns the current escalating sell offset.
func (e *Engine) ChaseOffsetCents() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sellChaseOffsetCents
}

// ======================================================================================
// Notifications
// ======================================================================================

func (e *Engine) notifyOrderPlaced(o *domain.Order) {
	for _, l := range e.listeners {
		l.OrderPlaced(*o)
	}
}

func (e *Engine) notifyOrderUpdated(o *domain.Order) {
	for _, l := range e.listeners {
		l.OrderUpdated(*o)
	}
}

func (e *Engine) notifyOrderCancelled(orderID string) {
	for _, l := range e.listeners {
		l.OrderCancelled(orderID)
	}
}

func (e *Engine) notifyPositionUpdated(p *domain.Position) {
	for _, l := range e.listeners {
		l.PositionUpdated(p.Symbol, p.Quantity, p.AvgCost)
	}
}

func (e *Engine) warn(message string) {
	slog.Warn(message)
	if e.metrics != nil {
		e.metrics.RecordWarning()
	}
	for _, l := range e.listeners {
		l.Warning(message)
	}
}
