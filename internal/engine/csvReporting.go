package engine

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"forecastbt/internal/blob"
	"forecastbt/types"

	"github.com/shopspring/decimal"
)

var exportHeader = []string{
	"Date",
	"Pair",
	"Quote balance",
	"Base balance",
	"Total balance",
	"Current price",
	"Predict price",
	"Max price",
	"Price percentage change",
	"Sell Market Order amount",
	"Sell Market Order price",
	"Buy Market Order amount",
	"Buy Market Order price",
	"Sell Limit Order amount",
	"Sell Limit Order price",
}

// ExportRow is the flat form of one calendar entry. Nil fields are absent.
type ExportRow struct {
	Date             string
	Pair             string
	QuoteBalance     decimal.Decimal
	BaseBalance      decimal.Decimal
	TotalBalance     decimal.Decimal
	CurrentPrice     decimal.Decimal
	PredictedPrice   *decimal.Decimal
	MaxPrice         decimal.Decimal
	PriceChangeRatio decimal.Decimal
	SellMarketAmount *decimal.Decimal
	SellMarketPrice  *decimal.Decimal
	BuyMarketAmount  *decimal.Decimal
	BuyMarketPrice   *decimal.Decimal
	SellLimitAmount  *decimal.Decimal
	SellLimitPrice   *decimal.Decimal
}

// Export flattens the calendar in its insertion order.
func Export(calendar *types.Calendar) []ExportRow {
	var rows []ExportRow
	calendar.Each(func(data types.Data) bool {
		rows = append(rows, exportRow(data))
		return true
	})
	return rows
}

func exportRow(data types.Data) ExportRow {
	row := ExportRow{
		Date:             types.DateKey(data.Date),
		Pair:             data.Pair,
		QuoteBalance:     data.Balance.Quote,
		BaseBalance:      data.Balance.Base,
		TotalBalance:     data.TotalValue,
		CurrentPrice:     data.CurrentPrice,
		PredictedPrice:   data.PredictedPrice,
		MaxPrice:         data.MaxPrice,
		PriceChangeRatio: data.PriceChangeRatio,
	}
	if o, ok := data.FindOrder(types.SideSell, types.TypeMarket); ok {
		row.SellMarketAmount, row.SellMarketPrice = orderCells(o)
	}
	if o, ok := data.FindOrder(types.SideBuy, types.TypeMarket); ok {
		row.BuyMarketAmount, row.BuyMarketPrice = orderCells(o)
	}
	if o, ok := data.FindOrder(types.SideSell, types.TypeLimit); ok {
		row.SellLimitAmount, row.SellLimitPrice = orderCells(o)
	}
	return row
}

func orderCells(o types.Order) (*decimal.Decimal, *decimal.Decimal) {
	amount, price := o.Filled, o.ResolvedPrice
	return &amount, &price
}

func (r ExportRow) record() []string {
	return []string{
		r.Date,
		r.Pair,
		r.QuoteBalance.String(),
		r.BaseBalance.String(),
		r.TotalBalance.String(),
		r.CurrentPrice.String(),
		optional(r.PredictedPrice),
		r.MaxPrice.String(),
		r.PriceChangeRatio.String(),
		optional(r.SellMarketAmount),
		optional(r.SellMarketPrice),
		optional(r.BuyMarketAmount),
		optional(r.BuyMarketPrice),
		optional(r.SellLimitAmount),
		optional(r.SellLimitPrice),
	}
}

func optional(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// WriteCSV writes rows to any io.Writer as CSV.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.record()); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WritePairCSVs stores one "{pair}.csv" per pair under dir.
func WritePairCSVs(ctx context.Context, w blob.Writer, dir string, rows []ExportRow) ([]string, error) {
	var order []string
	byPair := make(map[string][]ExportRow)
	for _, row := range rows {
		if _, ok := byPair[row.Pair]; !ok {
			order = append(order, row.Pair)
		}
		byPair[row.Pair] = append(byPair[row.Pair], row)
	}

	written := make([]string, 0, len(order))
	for _, pair := range order {
		var buf bytes.Buffer
		if err := WriteCSV(&buf, byPair[pair]); err != nil {
			return written, fmt.Errorf("%s: %w", pair, err)
		}
		path := pair + ".csv"
		if dir != "" {
			path = dir + "/" + path
		}
		if err := w.Put(ctx, path, &buf, "text/csv"); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
