package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE TABLE IF NOT EXISTS daily_prices (
    pair  TEXT    NOT NULL,
    day   DATE    NOT NULL,
    open  NUMERIC NOT NULL,
    max   NUMERIC NOT NULL,
    PRIMARY KEY (pair, day)
);

CREATE TABLE IF NOT EXISTS predictions (
    day              DATE    NOT NULL,
    pair             TEXT    NOT NULL,
    target_price     NUMERIC NOT NULL,
    predicted_return NUMERIC NOT NULL,
    PRIMARY KEY (day, pair)
);`

const getDailyPrices = `
SELECT pair, day, open, max
FROM daily_prices
WHERE pair = ANY($1) AND day BETWEEN $2 AND $3
ORDER BY pair, day`

const getPredictions = `
SELECT day, pair, target_price, predicted_return
FROM predictions
WHERE day BETWEEN $1 AND $2
ORDER BY day, pair`

type DailyPrice struct {
	Pair string
	Day  time.Time
	Open decimal.Decimal
	Max  decimal.Decimal
}

type GetDailyPricesParams struct {
	Pairs []string
	Start time.Time
	End   time.Time
}

type Prediction struct {
	Day             time.Time
	Pair            string
	TargetPrice     decimal.Decimal
	PredictedReturn decimal.Decimal
}

type GetPredictionsParams struct {
	Start time.Time
	End   time.Time
}

// Queries runs the SQL statements of the repository.
type Queries struct {
	db querier
}

func NewQueries(db querier) *Queries {
	return &Queries{db: db}
}

func (q *Queries) CreateSchema(ctx context.Context) error {
	_, err := q.db.Exec(ctx, schema)
	return err
}

func (q *Queries) GetDailyPrices(ctx context.Context, arg GetDailyPricesParams) ([]DailyPrice, error) {
	rows, err := q.db.Query(ctx, getDailyPrices, arg.Pairs, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[DailyPrice])
}

func (q *Queries) GetPredictions(ctx context.Context, arg GetPredictionsParams) ([]Prediction, error) {
	rows, err := q.db.Query(ctx, getPredictions, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Prediction])
}
