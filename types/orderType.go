package types

type Side string

type OrderType string

type OrderStatus string

const (
	// OrderOpen is part of the status set but the ledger resolves every order
	// before returning it, so no stored order carries it.
	OrderOpen      OrderStatus = "open"
	OrderClosed    OrderStatus = "closed"
	OrderCancelled OrderStatus = "cancelled"

	SideBuy  Side = "buy"
	SideSell Side = "sell"

	TypeMarket OrderType = "market"
	TypeLimit  OrderType = "limit"
)
