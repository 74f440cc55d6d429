package engine

// slot tracks the single live order allowed per side for the active symbol.
// The zero value is unoccupied. Using an explicit type (instead of a bare
// order-id field) makes the "ignore stale ids" rule a direct comparison.
type slot struct {
	orderID string
}

func (s *slot) Occupied() bool { return s.orderID != "" }

// Is reports whether the slot currently tracks the given order id.
func (s *slot) Is(orderID string) bool {
	return s.orderID != "" && s.orderID == orderID
}

func (s *slot) OrderID() string { return s.orderID }

func (s *slot) Set(orderID string) { s.orderID = orderID }

func (s *slot) Clear() { s.orderID = "" }
