package domain

import "time"

// SettingEntry is a persisted key/value trading setting (budget, offsets,
// hotkey percentage bindings, gateway endpoint).
type SettingEntry struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderRecord is the audit row written when an order reaches a terminal
// status. Kept across sessions; the in-memory Order book is per-session.
type OrderRecord struct {
	OrderID     string    `gorm:"primaryKey" json:"order_id"`
	Symbol      string    `gorm:"index" json:"symbol"`
	Side        string    `json:"side"`
	Quantity    int64     `json:"quantity"`
	LimitPrice  string    `json:"limit_price"` // decimal string, exact
	Status      string    `json:"status"`
	TimeInForce string    `json:"time_in_force"`
	FilledQty   string    `json:"filled_qty"`
	FillPrice   string    `json:"fill_price"`
	CreatedAt   time.Time `json:"created_at"`
	ClosedAt    time.Time `json:"closed_at"`
}

// NewOrderRecord snapshots a terminal order for persistence.
func NewOrderRecord(o *Order) *OrderRecord {
	closedAt := o.FilledAt
	if closedAt.IsZero() {
		closedAt = time.Now()
	}
	return &OrderRecord{
		OrderID:     o.ID,
		Symbol:      o.Symbol,
		Side:        o.Side,
		Quantity:    o.Quantity,
		LimitPrice:  o.LimitPrice.String(),
		Status:      o.Status,
		TimeInForce: o.TimeInForce,
		FilledQty:   o.FilledQty.String(),
		FillPrice:   o.FillPrice.String(),
		CreatedAt:   o.CreatedAt,
		ClosedAt:    closedAt,
	}
}
