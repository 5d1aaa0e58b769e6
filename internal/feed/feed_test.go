package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"forecastbt/internal/blob"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jan1 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	jan2 = jan1.AddDate(0, 0, 1)
	jan3 = jan1.AddDate(0, 0, 2)
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestReadPriceCSV(t *testing.T) {
	in := "0,16625.08,BTCUSDT,2023-01-01\n1,1196.13,ETHUSDT,2023-01-01\n2,16688.47,BTCUSDT,2023-01-02\n"
	rows, err := ReadPriceCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ETHUSDT", rows[1].Pair)
	assert.True(t, rows[1].Date.Equal(jan1))
	assert.True(t, rows[2].Price.Equal(d("16688.47")))
}

func TestReadPriceCSV_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bad price", "0,abc,BTCUSDT,2023-01-01\n"},
		{"bad date", "0,1,BTCUSDT,01/01/2023\n"},
		{"missing column", "0,1,BTCUSDT\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPriceCSV(strings.NewReader(tt.in))
			require.Error(t, err)
		})
	}
}

func TestReadPredictionCSV(t *testing.T) {
	in := ",date,token_name,price_to_be_sold,predicted_return,price_0\n" +
		"0,2023-01-01,BTCUSDT,17000.5,0.0226,16625.08\n" +
		"1,2023-01-01,ETHUSDT,1200,0.0032,1196.13\n"
	rows, err := ReadPredictionCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BTCUSDT", rows[0].Pair)
	assert.True(t, rows[0].TargetPrice.Equal(d("17000.5")))
	assert.True(t, rows[1].PredictedReturn.Equal(d("0.0032")))

	rows, err = ReadPredictionCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPredictions_Threshold(t *testing.T) {
	p := NewPredictions(DefaultThreshold)
	assert.True(t, p.Add(jan1, "BTCUSDT", d("17000"), d("0.01")))
	assert.False(t, p.Add(jan1, "ETHUSDT", d("1200"), d("0.0099")))
	assert.False(t, p.Add(jan1, "XRPUSDT", d("0.4"), d("-0.2")))
	assert.False(t, p.Add(jan1, "ADAUSDT", d("0"), d("0.5")), "zero target is no signal")
	assert.False(t, p.Add(jan1, "SOLUSDT", d("-3"), d("0.5")), "negative target is no signal")

	got := p.PredictionsFor(jan1.Add(13 * time.Hour))
	assert.Len(t, got, 1)
	assert.True(t, got["BTCUSDT"].Equal(d("17000")))

	assert.Empty(t, p.PredictionsFor(jan2))

	// returned maps are copies
	got["ETHUSDT"] = d("1")
	_, ok := p.Get(jan1, "ETHUSDT")
	assert.False(t, ok)
}

func TestPriceTable(t *testing.T) {
	table := NewPriceTable()
	table.SetOpen("BTCUSDT", jan1, d("10"))
	table.SetMax("BTCUSDT", jan1, d("11"))

	open, ok := table.OpenPrice("BTCUSDT", jan1)
	require.True(t, ok)
	assert.True(t, open.Equal(d("10")))
	_, ok = table.OpenPrice("BTCUSDT", jan2)
	assert.False(t, ok)
	_, ok = table.MaxPrice("ETHUSDT", jan1)
	assert.False(t, ok)
	assert.Equal(t, "BTCUSDT:2023-01-01", Key("BTCUSDT", jan1))
}

func TestLoader(t *testing.T) {
	ctx := context.Background()
	store := blob.NewDir(t.TempDir())
	put := func(path, body string) {
		require.NoError(t, store.Put(ctx, path, strings.NewReader(body), "text/csv"))
	}
	put("agg_open_price.csv", "0,10,X,2023-01-01\n1,11,X,2023-01-02\n")
	put("agg_max_price.csv", "0,12,X,2023-01-01\n1,13,X,2023-01-02\n")
	put("4_result_prices/2023-01-01_trading_price.csv",
		",date,token_name,price_to_be_sold,predicted_return,price_0\n0,2023-01-01 00:00:00,X,12.5,0.25,10\n1,2023-01-01 00:00:00,Y,3,0.001,2\n")

	loader := NewLoader(store, nil)
	prices, err := loader.LoadPrices(ctx, "agg_open_price.csv", "agg_max_price.csv")
	require.NoError(t, err)
	open, max := prices.Len()
	assert.Equal(t, 2, open)
	assert.Equal(t, 2, max)

	preds, err := loader.LoadPredictions(ctx, "4_result_prices", []time.Time{jan1, jan2, jan3}, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, 1, preds.Days())
	target, ok := preds.Get(jan1, "X")
	require.True(t, ok)
	assert.True(t, target.Equal(d("12.5")))
	_, ok = preds.Get(jan1, "Y")
	assert.False(t, ok)

	_, err = loader.LoadPrices(ctx, "missing.csv", "agg_max_price.csv")
	require.ErrorIs(t, err, blob.ErrNotFound)
}
