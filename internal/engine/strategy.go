package engine

import (
	"time"

	"forecastbt/types"
)

type action int

const (
	actionNone action = iota
	// actionLiquidate market-sells the whole base balance after a limit sell
	// expired unfilled.
	actionLiquidate
	// actionEnter market-buys with the whole quote balance and places a limit
	// sell of the whole base balance at the predicted price.
	actionEnter
)

func (a action) String() string {
	switch a {
	case actionLiquidate:
		return "liquidate"
	case actionEnter:
		return "enter"
	default:
		return "none"
	}
}

// decide derives the pair state from its last order. A liquidation takes the
// whole day: re-entry waits for the next date.
func decide(last types.Order, hasLast bool, date time.Time, hasPrediction bool) action {
	settled := hasLast && !last.UpdatedAt.After(date)
	if settled && last.IsCancelled() {
		return actionLiquidate
	}
	if !hasPrediction {
		return actionNone
	}
	if !hasLast {
		return actionEnter
	}
	if settled && last.IsClosed() && last.Side == types.SideSell {
		return actionEnter
	}
	return actionNone
}
