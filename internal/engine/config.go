package engine

import (
	"errors"
	"fmt"
	"time"

	"forecastbt/internal/ledger"
	"forecastbt/types"

	"github.com/shopspring/decimal"
)

var ErrInvalidRunConfig = errors.New("invalid run config")

// RunConfig describes one backtest run. Start and End are inclusive days.
type RunConfig struct {
	Pairs          []string
	Start          time.Time
	End            time.Time
	InitialDeposit decimal.Decimal
	FeeRate        decimal.Decimal
	LimitWindow    int
	// Parallelism is the number of pairs simulated at once. Values below 2
	// run every pair on one shared ledger.
	Parallelism  int
	ShowProgress bool
}

func NewRunConfig(pairs []string, start, end time.Time, initialDeposit decimal.Decimal) *RunConfig {
	return &RunConfig{
		Pairs:          pairs,
		Start:          types.Day(start),
		End:            types.Day(end),
		InitialDeposit: initialDeposit,
		FeeRate:        ledger.DefaultFeeRate,
		LimitWindow:    ledger.DefaultLimitWindow,
	}
}

func (c *RunConfig) Validate() error {
	switch {
	case len(c.Pairs) == 0:
		return fmt.Errorf("no pairs: %w", ErrInvalidRunConfig)
	case c.End.Before(c.Start):
		return fmt.Errorf("end %s before start %s: %w", types.DateKey(c.End), types.DateKey(c.Start), ErrInvalidRunConfig)
	case c.InitialDeposit.IsNegative():
		return fmt.Errorf("negative initial deposit: %w", ErrInvalidRunConfig)
	case c.FeeRate.IsNegative():
		return fmt.Errorf("negative fee rate: %w", ErrInvalidRunConfig)
	case c.LimitWindow < 1:
		return fmt.Errorf("limit window %d: %w", c.LimitWindow, ErrInvalidRunConfig)
	}
	seen := make(map[string]struct{}, len(c.Pairs))
	for _, p := range c.Pairs {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("duplicate pair %s: %w", p, ErrInvalidRunConfig)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// Dates lists every simulated day.
func (c *RunConfig) Dates() []time.Time {
	return types.DateRange(c.Start, c.End)
}
