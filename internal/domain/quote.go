package domain

import "github.com/shopspring/decimal"

// Quote is the latest market snapshot for the active symbol.
// It is ephemeral: overwritten in place on every tick, never persisted.
type Quote struct {
	Last decimal.Decimal `json:"last"`
	Bid  decimal.Decimal `json:"bid"`
	Ask  decimal.Decimal `json:"ask"`
}

// HasLast reports whether a trade price has been observed yet.
func (q Quote) HasLast() bool {
	return q.Last.IsPositive()
}

// Position tracks the held quantity and average cost for one symbol.
// Quantity changes only on confirmed fills, never on placement.
type Position struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	AvgCost  decimal.Decimal `json:"avg_cost"`
}

// IsFlat reports whether nothing is held.
func (p Position) IsFlat() bool {
	return !p.Quantity.IsPositive()
}

// ApplyBuyFill folds a buy execution into quantity and average cost.
func (p *Position) ApplyBuyFill(qty, price decimal.Decimal) {
	newQty := p.Quantity.Add(qty)
	if newQty.IsPositive() {
		cost := p.AvgCost.Mul(p.Quantity).Add(price.Mul(qty))
		p.AvgCost = cost.Div(newQty)
	}
	p.Quantity = newQty
}

// ApplySellFill reduces quantity by a sell execution. Quantity is clamped
// at zero so a broker over-report can never drive the position negative.
func (p *Position) ApplySellFill(qty decimal.Decimal) {
	p.Quantity = p.Quantity.Sub(qty)
	if p.Quantity.IsNegative() {
		p.Quantity = decimal.Zero
	}
	if p.Quantity.IsZero() {
		p.AvgCost = decimal.Zero
	}
}
