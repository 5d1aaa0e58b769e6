package engine

import (
	"context"
	"fmt"
	"time"

	"forecastbt/internal/ledger"
	"forecastbt/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Engine struct {
	config      *RunConfig
	prices      ledger.PriceOracle
	predictions predictionSource
	logger      *zap.Logger
}

func NewEngine(config *RunConfig, prices ledger.PriceOracle, predictions predictionSource, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		config:      config,
		prices:      prices,
		predictions: predictions,
		logger:      logger,
	}
}

// Result is the outcome of a run.
type Result struct {
	Start    time.Time
	End      time.Time
	Pairs    []string
	Calendar *types.Calendar
	// Orders is the full order history of every pair.
	Orders map[string][]types.Order
	// Totals is quote + base * open price on the last day, per pair.
	Totals    map[string]decimal.Decimal
	Total     decimal.Decimal
	Deposited decimal.Decimal
}

func (r *Result) NetProfit() decimal.Decimal {
	return r.Total.Sub(r.Deposited)
}

func (e *Engine) newLedger() *ledger.Ledger {
	return ledger.New(e.prices,
		ledger.WithFeeRate(e.config.FeeRate),
		ledger.WithLimitWindow(e.config.LimitWindow),
		ledger.WithLogger(e.logger.Named("ledger")))
}

// Run simulates every configured pair over the configured dates. The first
// ledger or lookup failure aborts the run.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if err := e.config.Validate(); err != nil {
		return nil, err
	}
	dates := e.config.Dates()
	pairs := e.config.Pairs
	bar := initProgressBar(len(pairs)*len(dates), e.config.ShowProgress)
	defer bar.Close()

	e.logger.Info("backtest started",
		zap.Strings("pairs", pairs),
		zap.String("start", types.DateKey(e.config.Start)),
		zap.String("end", types.DateKey(e.config.End)),
		zap.String("fee_rate", e.config.FeeRate.String()),
		zap.Int("parallelism", e.config.Parallelism))

	var (
		exchanges map[string]exchange
		calendar  *types.Calendar
		err       error
	)
	if e.config.Parallelism > 1 {
		calendar, exchanges, err = e.runParallel(ctx, pairs, dates, bar)
	} else {
		calendar, exchanges, err = e.runSequential(ctx, pairs, dates, bar)
	}
	if err != nil {
		e.logger.Error("backtest aborted", zap.Error(err))
		return nil, err
	}

	result, err := e.aggregate(calendar, exchanges, dates)
	if err != nil {
		return nil, err
	}
	e.logger.Info("backtest finished",
		zap.Int("snapshots", calendar.Len()),
		zap.String("total", result.Total.String()),
		zap.String("net_profit", result.NetProfit().String()))
	return result, nil
}

func (e *Engine) runSequential(ctx context.Context, pairs []string, dates []time.Time, bar progressTicker) (*types.Calendar, map[string]exchange, error) {
	l := e.newLedger()
	exchanges := make(map[string]exchange, len(pairs))
	for _, pair := range pairs {
		l.Deposit(pair, e.config.InitialDeposit)
		exchanges[pair] = l
	}
	calendar, err := newBacktester(l, e.predictions, dates, bar, e.logger).run(ctx, pairs)
	if err != nil {
		return nil, nil, err
	}
	return calendar, exchanges, nil
}

// runParallel gives every pair its own ledger, so no state crosses pair
// boundaries, then merges the calendars in pair order.
func (e *Engine) runParallel(ctx context.Context, pairs []string, dates []time.Time, bar progressTicker) (*types.Calendar, map[string]exchange, error) {
	calendars := make([]*types.Calendar, len(pairs))
	ledgers := make([]*ledger.Ledger, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Parallelism)
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			l := e.newLedger()
			l.Deposit(pair, e.config.InitialDeposit)
			cal, err := newBacktester(l, e.predictions, dates, bar, e.logger).run(gctx, []string{pair})
			if err != nil {
				return err
			}
			calendars[i] = cal
			ledgers[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	calendar := types.NewCalendar()
	exchanges := make(map[string]exchange, len(pairs))
	for i, pair := range pairs {
		calendar.Merge(calendars[i])
		exchanges[pair] = ledgers[i]
	}
	return calendar, exchanges, nil
}

func (e *Engine) aggregate(calendar *types.Calendar, exchanges map[string]exchange, dates []time.Time) (*Result, error) {
	lastDate := dates[len(dates)-1]
	result := &Result{
		Start:     e.config.Start,
		End:       e.config.End,
		Pairs:     append([]string(nil), e.config.Pairs...),
		Calendar:  calendar,
		Orders:    make(map[string][]types.Order, len(e.config.Pairs)),
		Totals:    make(map[string]decimal.Decimal, len(e.config.Pairs)),
		Total:     decimal.Zero,
		Deposited: e.config.InitialDeposit.Mul(decimal.NewFromInt(int64(len(e.config.Pairs)))),
	}
	for _, pair := range e.config.Pairs {
		ex := exchanges[pair]
		balance, err := ex.GetBalance(pair)
		if err != nil {
			return nil, err
		}
		price, err := ex.GetMarketPrice(pair, lastDate)
		if err != nil {
			return nil, fmt.Errorf("%s: final valuation: %w", pair, err)
		}
		total := balance.Value(price)
		result.Totals[pair] = total
		result.Total = result.Total.Add(total)
		result.Orders[pair] = ex.Orders(pair)
	}
	return result, nil
}
