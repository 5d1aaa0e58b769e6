package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Data is the state of one pair at the end of one simulated day.
type Data struct {
	Date             time.Time
	Pair             string
	Balance          Balance
	TotalValue       decimal.Decimal
	CurrentPrice     decimal.Decimal
	PredictedPrice   *decimal.Decimal
	MaxPrice         decimal.Decimal
	PriceChangeRatio decimal.Decimal
	// Orders settled or cancelled on Date.
	Orders []Order
}

// FindOrder returns the first settled order matching side and type.
func (d Data) FindOrder(side Side, orderType OrderType) (Order, bool) {
	for _, o := range d.Orders {
		if o.Side == side && o.Type == orderType {
			return o, true
		}
	}
	return Order{}, false
}
