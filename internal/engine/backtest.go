package engine

import (
	"context"
	"fmt"
	"time"

	"forecastbt/types"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// backtester walks the dates of one or more pairs against a single exchange.
type backtester struct {
	exchange    exchange
	predictions predictionSource
	dates       []time.Time
	bar         progressTicker
	logger      *zap.Logger
}

// progressTicker is satisfied by *progressbar.ProgressBar, which is safe for
// concurrent use.
type progressTicker interface {
	Add(num int) error
}

func newBacktester(ex exchange, predictions predictionSource, dates []time.Time, bar progressTicker, logger *zap.Logger) *backtester {
	return &backtester{
		exchange:    ex,
		predictions: predictions,
		dates:       dates,
		bar:         bar,
		logger:      logger,
	}
}

func (b *backtester) run(ctx context.Context, pairs []string) (*types.Calendar, error) {
	calendar := types.NewCalendar()
	for _, pair := range pairs {
		if err := b.runPair(ctx, pair, calendar); err != nil {
			return nil, err
		}
	}
	return calendar, nil
}

func (b *backtester) runPair(ctx context.Context, pair string, calendar *types.Calendar) error {
	if len(b.dates) == 0 {
		return nil
	}
	b.logger.Debug("simulating pair", zap.String("pair", pair))
	startPrice, err := b.exchange.GetMaxPrice(pair, b.dates[0])
	if err != nil {
		return fmt.Errorf("%s: reference price: %w", pair, err)
	}

	for _, date := range b.dates {
		if err := ctx.Err(); err != nil {
			return err
		}
		var predicted *decimal.Decimal
		if p, ok := b.predictions.PredictionsFor(date)[pair]; ok {
			predicted = &p
		}
		if err := b.step(pair, date, predicted); err != nil {
			return fmt.Errorf("%s %s: %w", pair, types.DateKey(date), err)
		}
		data, err := b.snapshot(pair, date, predicted, startPrice)
		if err != nil {
			return fmt.Errorf("%s %s: %w", pair, types.DateKey(date), err)
		}
		calendar.Add(data)
		if b.bar != nil {
			_ = b.bar.Add(1)
		}
	}
	return nil
}

// step applies the strategy for one pair and day.
func (b *backtester) step(pair string, date time.Time, predicted *decimal.Decimal) error {
	last, hasLast := b.exchange.GetLastOrder(pair)
	act := decide(last, hasLast, date, predicted != nil)
	switch act {
	case actionLiquidate:
		balance, err := b.exchange.GetBalance(pair)
		if err != nil {
			return err
		}
		if _, err := b.exchange.CreateOrder(types.NewMarketSell(pair, balance.Base, date)); err != nil {
			return err
		}
	case actionEnter:
		balance, err := b.exchange.GetBalance(pair)
		if err != nil {
			return err
		}
		if _, err := b.exchange.CreateOrder(types.NewMarketBuy(pair, balance.Quote, date)); err != nil {
			return err
		}
		balance, err = b.exchange.GetBalance(pair)
		if err != nil {
			return err
		}
		if _, err := b.exchange.CreateOrder(types.NewLimitSell(pair, balance.Base, *predicted, date)); err != nil {
			return err
		}
	}
	if act != actionNone {
		b.logger.Debug("strategy action",
			zap.String("pair", pair),
			zap.String("date", types.DateKey(date)),
			zap.Stringer("action", act))
	}
	return nil
}

func (b *backtester) snapshot(pair string, date time.Time, predicted *decimal.Decimal, startPrice decimal.Decimal) (types.Data, error) {
	balance, err := b.exchange.GetBalance(pair)
	if err != nil {
		return types.Data{}, err
	}
	current, err := b.exchange.GetMarketPrice(pair, date)
	if err != nil {
		return types.Data{}, err
	}
	maxPrice, err := b.exchange.GetMaxPrice(pair, date)
	if err != nil {
		return types.Data{}, err
	}
	ratio := decimal.Zero
	if !startPrice.IsZero() {
		ratio = current.Div(startPrice)
	}
	return types.Data{
		Date:             date,
		Pair:             pair,
		Balance:          balance,
		TotalValue:       balance.Value(current),
		CurrentPrice:     current,
		PredictedPrice:   predicted,
		MaxPrice:         maxPrice,
		PriceChangeRatio: ratio,
		Orders:           b.exchange.GetOrders(pair, date),
	}, nil
}

func initProgressBar(maxTicks int, show bool) *progressbar.ProgressBar {
	if !show {
		return progressbar.DefaultSilent(int64(maxTicks))
	}
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
