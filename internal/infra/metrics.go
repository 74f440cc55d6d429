package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability for the trading loop.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	eventsProcessed  atomic.Uint64
	ordersPlaced     atomic.Uint64
	ordersReplaced   atomic.Uint64
	ordersFilled     atomic.Uint64
	ordersCancelled  atomic.Uint64
	chaseEscalations atomic.Uint64
	warningsTotal    atomic.Uint64
	staleEvents      atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	gatewayConnected atomic.Int32 // 1 = connected
}

// RecordEvent records an event processing with latency.
func (m *Metrics) RecordEvent(latencyNs int64) {
	m.eventsProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordOrderPlaced records an order sent to the gateway.
func (m *Metrics) RecordOrderPlaced() {
	m.ordersPlaced.Add(1)
}

// RecordOrderReplaced records a cancel-and-recreate cycle.
func (m *Metrics) RecordOrderReplaced() {
	m.ordersReplaced.Add(1)
}

// RecordOrderFilled records a confirmed fill.
func (m *Metrics) RecordOrderFilled() {
	m.ordersFilled.Add(1)
}

// RecordOrderCancelled records a confirmed cancellation.
func (m *Metrics) RecordOrderCancelled() {
	m.ordersCancelled.Add(1)
}

// RecordChaseEscalation records one sell-offset doubling.
func (m *Metrics) RecordChaseEscalation() {
	m.chaseEscalations.Add(1)
}

// RecordWarning records a soft precondition rejection.
func (m *Metrics) RecordWarning() {
	m.warningsTotal.Add(1)
}

// RecordStaleEvent records a status event dropped for an unknown id.
func (m *Metrics) RecordStaleEvent() {
	m.staleEvents.Add(1)
}

// SetGatewayConnected sets the connectivity gauge.
func (m *Metrics) SetGatewayConnected(connected bool) {
	if connected {
		m.gatewayConnected.Store(1)
	} else {
		m.gatewayConnected.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsProcessed  uint64    `json:"events_processed"`
	OrdersPlaced     uint64    `json:"orders_placed"`
	OrdersReplaced   uint64    `json:"orders_replaced"`
	OrdersFilled     uint64    `json:"orders_filled"`
	OrdersCancelled  uint64    `json:"orders_cancelled"`
	ChaseEscalations uint64    `json:"chase_escalations"`
	WarningsTotal    uint64    `json:"warnings_total"`
	StaleEvents      uint64    `json:"stale_events"`
	AvgLatencyNs     int64     `json:"avg_latency_ns"`
	GatewayConnected bool      `json:"gateway_connected"`
	Timestamp        time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avg int64
	if count := m.latencyCount.Load(); count > 0 {
		avg = m.latencySumNs.Load() / int64(count)
	}
	return MetricsSnapshot{
		EventsProcessed:  m.eventsProcessed.Load(),
		OrdersPlaced:     m.ordersPlaced.Load(),
		OrdersReplaced:   m.ordersReplaced.Load(),
		OrdersFilled:     m.ordersFilled.Load(),
		OrdersCancelled:  m.ordersCancelled.Load(),
		ChaseEscalations: m.chaseEscalations.Load(),
		WarningsTotal:    m.warningsTotal.Load(),
		StaleEvents:      m.staleEvents.Load(),
		AvgLatencyNs:     avg,
		GatewayConnected: m.gatewayConnected.Load() == 1,
		Timestamp:        time.Now(),
	}
}
