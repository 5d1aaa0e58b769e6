package feed

import (
	"time"

	"forecastbt/types"

	"github.com/shopspring/decimal"
)

// DefaultThreshold is the minimum predicted return for a row to count as a signal.
var DefaultThreshold = decimal.RequireFromString("0.01")

// Predictions maps date -> pair -> predicted target price.
type Predictions struct {
	threshold decimal.Decimal
	byDate    map[time.Time]map[string]decimal.Decimal
}

func NewPredictions(threshold decimal.Decimal) *Predictions {
	return &Predictions{
		threshold: threshold,
		byDate:    make(map[time.Time]map[string]decimal.Decimal),
	}
}

// Add records a prediction unless its target price is not positive or its
// predicted return is below the threshold. It reports whether the row was kept.
func (p *Predictions) Add(date time.Time, pair string, target, predictedReturn decimal.Decimal) bool {
	if !target.IsPositive() || predictedReturn.LessThan(p.threshold) {
		return false
	}
	day := types.Day(date)
	byPair, ok := p.byDate[day]
	if !ok {
		byPair = make(map[string]decimal.Decimal)
		p.byDate[day] = byPair
	}
	byPair[pair] = target
	return true
}

// PredictionsFor returns a copy of the predictions of date. A date without
// predictions yields an empty map.
func (p *Predictions) PredictionsFor(date time.Time) map[string]decimal.Decimal {
	src := p.byDate[types.Day(date)]
	out := make(map[string]decimal.Decimal, len(src))
	for pair, price := range src {
		out[pair] = price
	}
	return out
}

func (p *Predictions) Get(date time.Time, pair string) (decimal.Decimal, bool) {
	price, ok := p.byDate[types.Day(date)][pair]
	return price, ok
}

// Days is the number of dates holding at least one prediction.
func (p *Predictions) Days() int {
	return len(p.byDate)
}
