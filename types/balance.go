package types

import "github.com/shopspring/decimal"

// Balance holds the holdings of one pair: Quote is the stable currency,
// Base is the traded asset.
type Balance struct {
	Quote decimal.Decimal
	Base  decimal.Decimal
}

// Value returns the balance expressed in the quote currency at price.
func (b Balance) Value(price decimal.Decimal) decimal.Decimal {
	return b.Quote.Add(b.Base.Mul(price))
}
