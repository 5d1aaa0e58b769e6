package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequest is what a strategy submits to the ledger.
type OrderRequest struct {
	Pair      string
	Amount    decimal.Decimal
	Price     *decimal.Decimal
	Side      Side
	Type      OrderType
	CreatedAt time.Time
}

// NewMarketBuy spends quoteAmount of the quote currency at the day's open price.
func NewMarketBuy(pair string, quoteAmount decimal.Decimal, createdAt time.Time) OrderRequest {
	return OrderRequest{
		Pair:      pair,
		Amount:    quoteAmount,
		Side:      SideBuy,
		Type:      TypeMarket,
		CreatedAt: createdAt,
	}
}

// NewMarketSell sells baseAmount of the traded asset at the day's open price.
func NewMarketSell(pair string, baseAmount decimal.Decimal, createdAt time.Time) OrderRequest {
	return OrderRequest{
		Pair:      pair,
		Amount:    baseAmount,
		Side:      SideSell,
		Type:      TypeMarket,
		CreatedAt: createdAt,
	}
}

func NewLimitSell(pair string, baseAmount, price decimal.Decimal, createdAt time.Time) OrderRequest {
	return OrderRequest{
		Pair:      pair,
		Amount:    baseAmount,
		Price:     &price,
		Side:      SideSell,
		Type:      TypeLimit,
		CreatedAt: createdAt,
	}
}

// Order is a resolved OrderRequest as recorded in the ledger history.
type Order struct {
	OrderRequest
	ID            string
	ResolvedPrice decimal.Decimal
	// Filled is the base quantity traded. For market buys it is the quote
	// amount divided by the fill price, for sells the requested amount.
	Filled    decimal.Decimal
	Fee       decimal.Decimal
	Status    OrderStatus
	UpdatedAt time.Time
}

func (o Order) IsClosed() bool {
	return o.Status == OrderClosed
}

func (o Order) IsCancelled() bool {
	return o.Status == OrderCancelled
}
