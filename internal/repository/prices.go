package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"forecastbt/internal/feed"

	"github.com/jackc/pgx/v5"
)

// LoadPrices reads the daily open and max prices of pairs between start and
// end, both inclusive.
func (db *Database) LoadPrices(ctx context.Context, pairs []string, start, end time.Time) (*feed.PriceTable, error) {
	rows, err := db.prices.GetDailyPrices(ctx, GetDailyPricesParams{
		Pairs: pairs,
		Start: start,
		End:   end,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoPrices
		}
		return nil, fmt.Errorf("load prices: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoPrices
	}
	return convertPrices(rows), nil
}

func convertPrices(rows []DailyPrice) *feed.PriceTable {
	table := feed.NewPriceTable()
	for _, row := range rows {
		table.SetOpen(row.Pair, row.Day, row.Open)
		table.SetMax(row.Pair, row.Day, row.Max)
	}
	return table
}
