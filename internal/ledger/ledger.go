// Package ledger implements the simulated exchange: it owns per-pair
// balances and the append-only order history, and resolves every order
// synchronously against a daily price oracle.
package ledger

import (
	"fmt"
	"time"

	"forecastbt/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultLimitWindow = 3
)

var DefaultFeeRate = decimal.RequireFromString("0.002")

// PriceOracle resolves the daily open and maximum price of a pair.
type PriceOracle interface {
	OpenPrice(pair string, date time.Time) (decimal.Decimal, bool)
	MaxPrice(pair string, date time.Time) (decimal.Decimal, bool)
}

// Ledger is not safe for concurrent use. Run one Ledger per goroutine.
type Ledger struct {
	prices      PriceOracle
	feeRate     decimal.Decimal
	limitWindow int
	logger      *zap.Logger
	newID       func() string

	balances map[string]*types.Balance
	history  map[string][]types.Order
	pairs    []string
}

type Option func(*Ledger)

func WithFeeRate(rate decimal.Decimal) Option {
	return func(l *Ledger) {
		l.feeRate = rate
	}
}

// WithLimitWindow sets how many days a limit sell stays eligible for a fill.
func WithLimitWindow(days int) Option {
	return func(l *Ledger) {
		if days > 0 {
			l.limitWindow = days
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithIDGenerator replaces the random order IDs, mostly for tests.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) {
		if gen != nil {
			l.newID = gen
		}
	}
}

func New(prices PriceOracle, opts ...Option) *Ledger {
	l := &Ledger{
		prices:      prices,
		feeRate:     DefaultFeeRate,
		limitWindow: DefaultLimitWindow,
		logger:      zap.NewNop(),
		newID:       uuid.NewString,
		balances:    make(map[string]*types.Balance),
		history:     make(map[string][]types.Order),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) FeeRate() decimal.Decimal {
	return l.feeRate
}

// Deposit credits amount to the quote balance of pair, creating the balance
// on first use.
func (l *Ledger) Deposit(pair string, amount decimal.Decimal) {
	b, ok := l.balances[pair]
	if !ok {
		b = &types.Balance{Quote: decimal.Zero, Base: decimal.Zero}
		l.balances[pair] = b
		l.pairs = append(l.pairs, pair)
	}
	b.Quote = b.Quote.Add(amount)
	l.logger.Debug("deposit", zap.String("pair", pair), zap.String("amount", amount.String()))
}

func (l *Ledger) GetBalance(pair string) (types.Balance, error) {
	b, ok := l.balances[pair]
	if !ok {
		return types.Balance{}, fmt.Errorf("pair %s: %w", pair, ErrNotFound)
	}
	return *b, nil
}

// GetLastOrder returns the most recently appended order of pair.
func (l *Ledger) GetLastOrder(pair string) (types.Order, bool) {
	orders := l.history[pair]
	if len(orders) == 0 {
		return types.Order{}, false
	}
	return orders[len(orders)-1], true
}

// GetOrders returns the orders of pair whose fate was decided on date,
// whatever day they were created.
func (l *Ledger) GetOrders(pair string, date time.Time) []types.Order {
	day := types.Day(date)
	var out []types.Order
	for _, o := range l.history[pair] {
		if o.UpdatedAt.Equal(day) {
			out = append(out, o)
		}
	}
	return out
}

// Orders returns a copy of the full history of pair.
func (l *Ledger) Orders(pair string) []types.Order {
	return append([]types.Order(nil), l.history[pair]...)
}

// Pairs lists the deposited pairs in deposit order.
func (l *Ledger) Pairs() []string {
	return append([]string(nil), l.pairs...)
}

func (l *Ledger) GetMarketPrice(pair string, date time.Time) (decimal.Decimal, error) {
	price, ok := l.prices.OpenPrice(pair, types.Day(date))
	if !ok {
		return decimal.Zero, fmt.Errorf("open price %s:%s: %w", pair, types.DateKey(date), ErrPriceUnavailable)
	}
	return price, nil
}

func (l *Ledger) GetMaxPrice(pair string, date time.Time) (decimal.Decimal, error) {
	price, ok := l.prices.MaxPrice(pair, types.Day(date))
	if !ok {
		return decimal.Zero, fmt.Errorf("max price %s:%s: %w", pair, types.DateKey(date), ErrPriceUnavailable)
	}
	return price, nil
}
