package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backtest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
pairs: [BTCUSDT, ETHUSDT]
start: "2023-01-01"
end: "2023-01-31"
initial_deposit: "500"
parallelism: 4
data:
  predictions_dir: predictions
storage:
  kind: s3
  s3:
    region: eu-west-1
    bucket: backtests
    force_path_style: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Pairs)
	assert.Equal(t, "2023-01-01", cfg.Start.Format("2006-01-02"))
	assert.Equal(t, "2023-01-31", cfg.End.Format("2006-01-02"))
	assert.True(t, cfg.InitialDeposit.Equal(decimal.NewFromInt(500)))
	assert.True(t, cfg.FeeRate.Equal(decimal.RequireFromString("0.002")), "default fee rate")
	assert.Equal(t, 3, cfg.LimitWindow)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, "predictions", cfg.Data.PredictionsDir)
	assert.Equal(t, "agg_open_price.csv", cfg.Data.OpenPrices, "unset nested fields keep defaults")
	assert.Equal(t, StorageS3, cfg.Storage.Kind)
	assert.Equal(t, "backtests", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.ForcePathStyle)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "2023-02-02", cfg.LastPriceDate().Format("2006-01-02"))
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "pairs: [BTCUSDT]\n")
	t.Setenv("BACKTEST_PAIRS", "SOLUSDT, ADAUSDT,")
	t.Setenv("BACKTEST_FEE_RATE", "0.001")
	t.Setenv("BACKTEST_LIMIT_WINDOW", "5")
	t.Setenv("BACKTEST_SOURCE", "Postgres")
	t.Setenv("BACKTEST_DATABASE_URL", "postgres://bt:bt@localhost:5432/bt")
	t.Setenv("BACKTEST_S3_FORCE_PATH_STYLE", "not-a-bool")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"SOLUSDT", "ADAUSDT"}, cfg.Pairs)
	assert.True(t, cfg.FeeRate.Equal(decimal.RequireFromString("0.001")))
	assert.Equal(t, 5, cfg.LimitWindow)
	assert.Equal(t, SourcePostgres, cfg.Source)
	assert.False(t, cfg.Storage.S3.ForcePathStyle, "unparsable values are ignored")
	require.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"bad date", "start: 01/02/2023\n", ErrInvalidConfig},
		{"bad decimal", "initial_deposit: lots\n", ErrInvalidConfig},
		{"bad threshold", "prediction_threshold: \"\"\n", ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "pairs: [unterminated\n"))
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Defaults().parse()
		require.NoError(t, err)
		cfg.Pairs = []string{"BTCUSDT"}
		return cfg
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults with a pair", func(c *Config) {}, false},
		{"no pairs", func(c *Config) { c.Pairs = nil }, true},
		{"blank pair", func(c *Config) { c.Pairs = []string{" "} }, true},
		{"duplicate pair", func(c *Config) { c.Pairs = []string{"A", "A"} }, true},
		{"end before start", func(c *Config) { c.End = c.Start.AddDate(0, 0, -1) }, true},
		{"zero deposit", func(c *Config) { c.InitialDeposit = decimal.Zero }, true},
		{"fee rate of one", func(c *Config) { c.FeeRate = decimal.NewFromInt(1) }, true},
		{"zero fee rate", func(c *Config) { c.FeeRate = decimal.Zero }, false},
		{"zero limit window", func(c *Config) { c.LimitWindow = 0 }, true},
		{"negative parallelism", func(c *Config) { c.Parallelism = -1 }, true},
		{"unknown source", func(c *Config) { c.Source = "parquet" }, true},
		{"postgres without url", func(c *Config) { c.Source = SourcePostgres }, true},
		{"csv without tables", func(c *Config) { c.Data.MaxPrices = "" }, true},
		{"unknown storage", func(c *Config) { c.Storage.Kind = "gcs" }, true},
		{"s3 without bucket", func(c *Config) { c.Storage.Kind = StorageS3; c.Storage.S3.Region = "us-east-1" }, true},
		{"local without root", func(c *Config) { c.Storage.Root = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}
