package engine

import (
	"time"

	"forecastbt/types"

	"github.com/shopspring/decimal"
)

type predictionSource interface {
	PredictionsFor(date time.Time) map[string]decimal.Decimal
}

// exchange is the part of the ledger the driver talks to.
type exchange interface {
	Deposit(pair string, amount decimal.Decimal)
	CreateOrder(req types.OrderRequest) (types.Order, error)
	GetBalance(pair string) (types.Balance, error)
	GetLastOrder(pair string) (types.Order, bool)
	GetOrders(pair string, date time.Time) []types.Order
	GetMarketPrice(pair string, date time.Time) (decimal.Decimal, error)
	GetMaxPrice(pair string, date time.Time) (decimal.Decimal, error)
	Orders(pair string) []types.Order
}
