package engine

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// centsToPrice converts an offset in cents to a price delta.
func centsToPrice(cents int) decimal.Decimal {
	return decimal.New(int64(cents), -2)
}

// sharesFor sizes an order at percentage of budget against the last traded
// price: floor(budget * percentage / 100 / lastPrice). Returns 0 when no
// price is known or the amount rounds below one share; callers treat 0 as a
// soft rejection.
func (e *Engine) sharesFor(percentage int) int64 {
	price := e.quote.Last
	if !price.IsPositive() {
		return 0
	}

	amount := e.settings.Budget().
		Mul(decimal.NewFromInt(int64(percentage))).
		Div(oneHundred)

	return amount.Div(price).IntPart()
}

// buyLimitPrice is the working buy price: ask plus the fixed ask offset.
func (e *Engine) buyLimitPrice() decimal.Decimal {
	return e.quote.Ask.Add(centsToPrice(e.settings.AskOffsetCents()))
}

// sellLimitPrice is the working sell price: bid minus the current
// (escalating) chase offset.
func (e *Engine) sellLimitPrice() decimal.Decimal {
	return e.quote.Bid.Sub(centsToPrice(e.sellChaseOffsetCents))
}
