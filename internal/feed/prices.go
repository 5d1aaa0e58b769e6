// Package feed holds the read-only market inputs of a backtest: daily open
// and max prices, and the per-day predicted target prices.
package feed

import (
	"time"

	"forecastbt/types"

	"github.com/shopspring/decimal"
)

// Key formats the lookup key of a daily price, "{pair}:{YYYY-MM-DD}".
func Key(pair string, date time.Time) string {
	return pair + ":" + types.DateKey(date)
}

// PriceTable is an in-memory price oracle. Fill it once before the run.
type PriceTable struct {
	open map[string]decimal.Decimal
	max  map[string]decimal.Decimal
}

func NewPriceTable() *PriceTable {
	return &PriceTable{
		open: make(map[string]decimal.Decimal),
		max:  make(map[string]decimal.Decimal),
	}
}

func (t *PriceTable) SetOpen(pair string, date time.Time, price decimal.Decimal) {
	t.open[Key(pair, date)] = price
}

func (t *PriceTable) SetMax(pair string, date time.Time, price decimal.Decimal) {
	t.max[Key(pair, date)] = price
}

func (t *PriceTable) OpenPrice(pair string, date time.Time) (decimal.Decimal, bool) {
	p, ok := t.open[Key(pair, date)]
	return p, ok
}

func (t *PriceTable) MaxPrice(pair string, date time.Time) (decimal.Decimal, bool) {
	p, ok := t.max[Key(pair, date)]
	return p, ok
}

// Len returns the number of open and max entries.
func (t *PriceTable) Len() (open, max int) {
	return len(t.open), len(t.max)
}
