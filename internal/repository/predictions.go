package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"forecastbt/internal/feed"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LoadPredictions reads the predictions between start and end. Rows whose
// predicted return is below threshold are dropped. No rows is not an error.
func (db *Database) LoadPredictions(ctx context.Context, start, end time.Time, threshold decimal.Decimal) (*feed.Predictions, error) {
	preds := feed.NewPredictions(threshold)
	rows, err := db.predictions.GetPredictions(ctx, GetPredictionsParams{Start: start, End: end})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return preds, nil
		}
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	for _, row := range rows {
		preds.Add(row.Day, row.Pair, row.TargetPrice, row.PredictedReturn)
	}
	return preds, nil
}
