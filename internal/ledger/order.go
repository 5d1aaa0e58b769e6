package ledger

import (
	"fmt"

	"forecastbt/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateOrder resolves req against the oracle, appends the result to the
// pair's history and settles it against the pair's balance.
//
// Resolution rules:
//   - market buy: fills at the open price of CreatedAt, exactly Amount is
//     debited from the quote balance and the fee is taken from the received
//     base quantity.
//   - market sell: fills at the open price of CreatedAt, the fee is taken from
//     the quote proceeds.
//   - limit sell: fills at the limit price on the first day of the limit window
//     whose max price reaches it, otherwise it is cancelled the day after the
//     window ends and leaves balances untouched.
//   - limit buy: rejected.
func (l *Ledger) CreateOrder(req types.OrderRequest) (types.Order, error) {
	if err := validate(req); err != nil {
		return types.Order{}, err
	}
	req.CreatedAt = types.Day(req.CreatedAt)
	if req.Price != nil {
		price := *req.Price
		req.Price = &price
	}

	if _, ok := l.balances[req.Pair]; !ok {
		return types.Order{}, fmt.Errorf("pair %s: %w", req.Pair, ErrNotFound)
	}

	var (
		order types.Order
		err   error
	)
	switch req.Type {
	case types.TypeMarket:
		order, err = l.resolveMarket(req)
	case types.TypeLimit:
		order, err = l.resolveLimitSell(req)
	}
	if err != nil {
		return types.Order{}, err
	}

	order.ID = l.newID()
	l.history[req.Pair] = append(l.history[req.Pair], order)
	l.settle(order)

	l.logger.Debug("order resolved",
		zap.String("id", order.ID),
		zap.String("pair", order.Pair),
		zap.String("side", string(order.Side)),
		zap.String("type", string(order.Type)),
		zap.String("status", string(order.Status)),
		zap.String("price", order.ResolvedPrice.String()),
		zap.String("filled", order.Filled.String()),
		zap.String("fee", order.Fee.String()),
		zap.String("created_at", types.DateKey(order.CreatedAt)),
		zap.String("updated_at", types.DateKey(order.UpdatedAt)))
	return order, nil
}

func validate(req types.OrderRequest) error {
	switch {
	case req.Side != types.SideBuy && req.Side != types.SideSell:
		return fmt.Errorf("unknown side %q: %w", req.Side, ErrInvalidOrderRequest)
	case req.Type != types.TypeMarket && req.Type != types.TypeLimit:
		return fmt.Errorf("unknown order type %q: %w", req.Type, ErrInvalidOrderRequest)
	case req.Side == types.SideBuy && req.Type == types.TypeLimit:
		return fmt.Errorf("limit buy orders are not supported: %w", ErrInvalidOrderRequest)
	case req.Type == types.TypeLimit && req.Price == nil:
		return fmt.Errorf("limit sell without price: %w", ErrInvalidOrderRequest)
	case req.Amount.IsNegative():
		return fmt.Errorf("negative amount %s: %w", req.Amount, ErrInvalidOrderRequest)
	}
	return nil
}

func (l *Ledger) resolveMarket(req types.OrderRequest) (types.Order, error) {
	price, err := l.GetMarketPrice(req.Pair, req.CreatedAt)
	if err != nil {
		return types.Order{}, err
	}
	order := types.Order{
		OrderRequest:  req,
		ResolvedPrice: price,
		Status:        types.OrderClosed,
		UpdatedAt:     req.CreatedAt,
	}
	if req.Side == types.SideBuy {
		if price.IsZero() {
			return types.Order{}, fmt.Errorf("open price %s:%s is zero: %w",
				req.Pair, types.DateKey(req.CreatedAt), ErrPriceUnavailable)
		}
		order.Filled = req.Amount.Div(price)
		order.Fee = l.feeRate.Mul(order.Filled)
		return order, nil
	}
	order.Filled = req.Amount
	order.Fee = l.feeRate.Mul(req.Amount.Mul(price))
	return order, nil
}

func (l *Ledger) resolveLimitSell(req types.OrderRequest) (types.Order, error) {
	limit := *req.Price
	order := types.Order{
		OrderRequest:  req,
		ResolvedPrice: limit,
		Filled:        req.Amount,
		Fee:           decimal.Zero,
	}
	for offset := 0; offset < l.limitWindow; offset++ {
		day := req.CreatedAt.AddDate(0, 0, offset)
		maxPrice, err := l.GetMaxPrice(req.Pair, day)
		if err != nil {
			return types.Order{}, err
		}
		if maxPrice.GreaterThanOrEqual(limit) {
			order.Status = types.OrderClosed
			order.UpdatedAt = day
			order.Fee = l.feeRate.Mul(req.Amount.Mul(limit))
			return order, nil
		}
	}
	order.Status = types.OrderCancelled
	order.UpdatedAt = req.CreatedAt.AddDate(0, 0, l.limitWindow)
	return order, nil
}

func (l *Ledger) settle(o types.Order) {
	b := l.balances[o.Pair]
	switch {
	case o.Side == types.SideBuy:
		// Amount is the quote spent; Filled is rounded by the division.
		b.Quote = b.Quote.Sub(o.Amount)
		b.Base = b.Base.Add(o.Filled.Sub(o.Fee))
	case o.Side == types.SideSell && o.IsClosed():
		b.Quote = b.Quote.Add(o.ResolvedPrice.Mul(o.Filled).Sub(o.Fee))
		b.Base = b.Base.Sub(o.Filled)
	}
}
