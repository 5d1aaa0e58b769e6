package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"forecastbt/internal/blob"
	"forecastbt/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrMalformedRow = errors.New("malformed row")

// PredictionFileName is the per-day prediction file, e.g. 2023-12-06_trading_price.csv.
func PredictionFileName(date time.Time) string {
	return types.DateKey(date) + "_trading_price.csv"
}

// PriceRow is one line of an aggregate price table.
type PriceRow struct {
	Pair  string
	Date  time.Time
	Price decimal.Decimal
}

// ReadPriceCSV parses a headerless aggregate table with lines
// "index,price,pair,YYYY-MM-DD".
func ReadPriceCSV(r io.Reader) ([]PriceRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.ReuseRecord = true

	var rows []PriceRow
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read price table: %w", err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d price %q: %w", line, rec[1], ErrMalformedRow)
		}
		date, err := types.ParseDate(strings.TrimSpace(rec[3]))
		if err != nil {
			return nil, fmt.Errorf("line %d date %q: %w", line, rec[3], ErrMalformedRow)
		}
		rows = append(rows, PriceRow{Pair: strings.TrimSpace(rec[2]), Date: date, Price: price})
	}
}

// PredictionRow is one line of a per-day prediction file.
type PredictionRow struct {
	Pair            string
	TargetPrice     decimal.Decimal
	PredictedReturn decimal.Decimal
}

// ReadPredictionCSV parses a prediction file with a header line and columns
// "index,date,token_name,price_to_be_sold,predicted_return,price_0".
func ReadPredictionCSV(r io.Reader) ([]PredictionRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read prediction header: %w", err)
	}

	var rows []PredictionRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read predictions: %w", err)
		}
		target, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
		if err != nil {
			return nil, fmt.Errorf("line %d price_to_be_sold %q: %w", line, rec[3], ErrMalformedRow)
		}
		ret, err := decimal.NewFromString(strings.TrimSpace(rec[4]))
		if err != nil {
			return nil, fmt.Errorf("line %d predicted_return %q: %w", line, rec[4], ErrMalformedRow)
		}
		rows = append(rows, PredictionRow{
			Pair:            strings.TrimSpace(rec[2]),
			TargetPrice:     target,
			PredictedReturn: ret,
		})
	}
}

// Loader reads the input tables from a blob store.
type Loader struct {
	store  blob.Reader
	logger *zap.Logger
}

func NewLoader(store blob.Reader, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: store, logger: logger}
}

// LoadPrices reads the open and max aggregate tables into one PriceTable.
func (l *Loader) LoadPrices(ctx context.Context, openPath, maxPath string) (*PriceTable, error) {
	table := NewPriceTable()
	openRows, err := l.readPrices(ctx, openPath)
	if err != nil {
		return nil, err
	}
	for _, row := range openRows {
		table.SetOpen(row.Pair, row.Date, row.Price)
	}
	maxRows, err := l.readPrices(ctx, maxPath)
	if err != nil {
		return nil, err
	}
	for _, row := range maxRows {
		table.SetMax(row.Pair, row.Date, row.Price)
	}
	l.logger.Info("price tables loaded",
		zap.String("open", openPath), zap.Int("open_rows", len(openRows)),
		zap.String("max", maxPath), zap.Int("max_rows", len(maxRows)))
	return table, nil
}

func (l *Loader) readPrices(ctx context.Context, path string) ([]PriceRow, error) {
	rc, err := l.store.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open price table: %w", err)
	}
	defer rc.Close()
	rows, err := ReadPriceCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// LoadPredictions reads one prediction file per date from dir. A missing
// file means no predictions for that date.
func (l *Loader) LoadPredictions(ctx context.Context, dir string, dates []time.Time, threshold decimal.Decimal) (*Predictions, error) {
	preds := NewPredictions(threshold)
	var missing, dropped int
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := joinPath(dir, PredictionFileName(date))
		rows, err := l.readPredictions(ctx, name)
		if errors.Is(err, blob.ErrNotFound) {
			missing++
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if !preds.Add(date, row.Pair, row.TargetPrice, row.PredictedReturn) {
				dropped++
			}
		}
	}
	l.logger.Info("predictions loaded",
		zap.Int("days", len(dates)),
		zap.Int("days_with_signal", preds.Days()),
		zap.Int("missing_files", missing),
		zap.Int("below_threshold", dropped))
	return preds, nil
}

func (l *Loader) readPredictions(ctx context.Context, path string) ([]PredictionRow, error) {
	rc, err := l.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	rows, err := ReadPredictionCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}
