package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var (
	startTime = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime   = startTime.AddDate(0, 0, 4)
)

type mockPricesRepository struct {
	sqlError error
	empty    bool
}

func (m mockPricesRepository) GetDailyPrices(_ context.Context, arg GetDailyPricesParams) ([]DailyPrice, error) {
	if m.sqlError != nil {
		return nil, m.sqlError
	}
	if m.empty {
		return nil, nil
	}
	var rows []DailyPrice
	for _, pair := range arg.Pairs {
		for day := arg.Start; !day.After(arg.End); day = day.AddDate(0, 0, 1) {
			rows = append(rows, DailyPrice{
				Pair: pair,
				Day:  day,
				Open: decimal.NewFromInt(int64(day.Day())),
				Max:  decimal.NewFromInt(int64(day.Day() + 1)),
			})
		}
	}
	return rows, nil
}

type mockPredictionsRepository struct {
	sqlError error
	rows     []Prediction
}

func (m mockPredictionsRepository) GetPredictions(_ context.Context, _ GetPredictionsParams) ([]Prediction, error) {
	return m.rows, m.sqlError
}

func TestDatabase_LoadPrices(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		repo    mockPricesRepository
		wantErr error
	}{
		{"should throw ErrNoPrices on no rows", mockPricesRepository{sqlError: pgx.ErrNoRows}, ErrNoPrices},
		{"should throw ErrNoPrices on empty result", mockPricesRepository{empty: true}, ErrNoPrices},
		{"should wrap driver errors", mockPricesRepository{sqlError: boom}, boom},
		{"should return prices", mockPricesRepository{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &Database{prices: tt.repo}
			got, err := db.LoadPrices(context.Background(), []string{"BTCUSDT", "ETHUSDT"}, startTime, endTime)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadPrices() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadPrices() unexpected error = %v", err)
			}
			open, max := got.Len()
			if open != 10 || max != 10 {
				t.Errorf("LoadPrices() open = %d, max = %d, want 10 each", open, max)
			}
			price, ok := got.MaxPrice("ETHUSDT", startTime.AddDate(0, 0, 2))
			if !ok || !price.Equal(decimal.NewFromInt(4)) {
				t.Errorf("LoadPrices() max = %v (%v), want 4", price, ok)
			}
		})
	}
}

func TestDatabase_LoadPredictions(t *testing.T) {
	rows := []Prediction{
		{Day: startTime, Pair: "BTCUSDT", TargetPrice: decimal.NewFromInt(17000), PredictedReturn: decimal.RequireFromString("0.05")},
		{Day: startTime, Pair: "ETHUSDT", TargetPrice: decimal.NewFromInt(1200), PredictedReturn: decimal.RequireFromString("0.001")},
	}
	db := &Database{predictions: mockPredictionsRepository{rows: rows}}

	got, err := db.LoadPredictions(context.Background(), startTime, endTime, decimal.RequireFromString("0.01"))
	if err != nil {
		t.Fatalf("LoadPredictions() error = %v", err)
	}
	if len(got.PredictionsFor(startTime)) != 1 {
		t.Errorf("LoadPredictions() kept %d rows, want 1", len(got.PredictionsFor(startTime)))
	}

	db = &Database{predictions: mockPredictionsRepository{sqlError: pgx.ErrNoRows}}
	got, err = db.LoadPredictions(context.Background(), startTime, endTime, decimal.Zero)
	if err != nil {
		t.Fatalf("LoadPredictions() error = %v", err)
	}
	if got.Days() != 0 {
		t.Errorf("LoadPredictions() days = %d, want 0", got.Days())
	}
}
