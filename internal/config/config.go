// Package config loads backtest settings from a YAML file, an optional .env
// file and BACKTEST_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"forecastbt/internal/blob"
	"forecastbt/types"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"

	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Pairs               []string
	Start               time.Time
	End                 time.Time
	InitialDeposit      decimal.Decimal
	FeeRate             decimal.Decimal
	LimitWindow         int
	Parallelism         int
	PredictionThreshold decimal.Decimal

	Source      string
	DatabaseURL string
	Data        DataConfig
	Storage     StorageConfig
}

// DataConfig locates inputs and outputs inside the storage backend.
type DataConfig struct {
	OpenPrices     string `yaml:"open_prices"`
	MaxPrices      string `yaml:"max_prices"`
	PredictionsDir string `yaml:"predictions_dir"`
	OutputDir      string `yaml:"output_dir"`
}

type StorageConfig struct {
	Kind string        `yaml:"kind"`
	Root string        `yaml:"root"`
	S3   blob.S3Config `yaml:"s3"`
}

// ConfigTmp is the on-disk form. Decimals and dates stay strings until parse.
type ConfigTmp struct {
	Pairs               []string      `yaml:"pairs"`
	Start               string        `yaml:"start"`
	End                 string        `yaml:"end"`
	InitialDeposit      string        `yaml:"initial_deposit"`
	FeeRate             string        `yaml:"fee_rate"`
	LimitWindow         int           `yaml:"limit_window"`
	Parallelism         int           `yaml:"parallelism"`
	PredictionThreshold string        `yaml:"prediction_threshold"`
	Source              string        `yaml:"source"`
	DatabaseURL         string        `yaml:"database_url"`
	Data                DataConfig    `yaml:"data"`
	Storage             StorageConfig `yaml:"storage"`
}

// Defaults mirrors the layout of the historical data bucket.
func Defaults() ConfigTmp {
	return ConfigTmp{
		Start:               "2020-04-01",
		End:                 "2023-12-07",
		InitialDeposit:      "1000",
		FeeRate:             "0.002",
		LimitWindow:         3,
		Parallelism:         1,
		PredictionThreshold: "0.01",
		Source:              SourceCSV,
		Data: DataConfig{
			OpenPrices:     "agg_open_price.csv",
			MaxPrices:      "agg_max_price.csv",
			PredictionsDir: "4_result_prices",
			OutputDir:      "5_backtest_result",
		},
		Storage: StorageConfig{
			Kind: StorageLocal,
			Root: "./data",
		},
	}
}

// Load reads the YAML file at path on top of Defaults. An empty path skips
// the file. The result is parsed but not validated.
func Load(path string) (*Config, error) {
	tmp := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &tmp); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	applyEnvOverrides(&tmp)

	return tmp.parse()
}

func (t ConfigTmp) parse() (*Config, error) {
	start, err := types.ParseDate(t.Start)
	if err != nil {
		return nil, fmt.Errorf("start %q: %w", t.Start, ErrInvalidConfig)
	}
	end, err := types.ParseDate(t.End)
	if err != nil {
		return nil, fmt.Errorf("end %q: %w", t.End, ErrInvalidConfig)
	}
	deposit, err := parseDecimal("initial_deposit", t.InitialDeposit)
	if err != nil {
		return nil, err
	}
	feeRate, err := parseDecimal("fee_rate", t.FeeRate)
	if err != nil {
		return nil, err
	}
	threshold, err := parseDecimal("prediction_threshold", t.PredictionThreshold)
	if err != nil {
		return nil, err
	}

	return &Config{
		Pairs:               t.Pairs,
		Start:               start,
		End:                 end,
		InitialDeposit:      deposit,
		FeeRate:             feeRate,
		LimitWindow:         t.LimitWindow,
		Parallelism:         t.Parallelism,
		PredictionThreshold: threshold,
		Source:              strings.ToLower(t.Source),
		DatabaseURL:         t.DatabaseURL,
		Data:                t.Data,
		Storage: StorageConfig{
			Kind: strings.ToLower(t.Storage.Kind),
			Root: t.Storage.Root,
			S3:   t.Storage.S3,
		},
	}, nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", field, value, ErrInvalidConfig)
	}
	return d, nil
}

func (c *Config) Validate() error {
	switch {
	case len(c.Pairs) == 0:
		return fmt.Errorf("pairs: at least one pair is required: %w", ErrInvalidConfig)
	case c.End.Before(c.Start):
		return fmt.Errorf("end %s is before start %s: %w", types.DateKey(c.End), types.DateKey(c.Start), ErrInvalidConfig)
	case !c.InitialDeposit.IsPositive():
		return fmt.Errorf("initial_deposit must be positive: %w", ErrInvalidConfig)
	case c.FeeRate.IsNegative() || c.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return fmt.Errorf("fee_rate %s out of [0, 1): %w", c.FeeRate, ErrInvalidConfig)
	case c.LimitWindow < 1:
		return fmt.Errorf("limit_window must be at least 1: %w", ErrInvalidConfig)
	case c.Parallelism < 0:
		return fmt.Errorf("parallelism must not be negative: %w", ErrInvalidConfig)
	case c.PredictionThreshold.IsNegative():
		return fmt.Errorf("prediction_threshold must not be negative: %w", ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(c.Pairs))
	for _, pair := range c.Pairs {
		if strings.TrimSpace(pair) == "" {
			return fmt.Errorf("pairs: empty pair name: %w", ErrInvalidConfig)
		}
		if _, dup := seen[pair]; dup {
			return fmt.Errorf("pairs: duplicate %s: %w", pair, ErrInvalidConfig)
		}
		seen[pair] = struct{}{}
	}

	switch c.Source {
	case SourceCSV:
		if c.Data.OpenPrices == "" || c.Data.MaxPrices == "" {
			return fmt.Errorf("data: open_prices and max_prices are required for the csv source: %w", ErrInvalidConfig)
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required for the postgres source: %w", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("unknown source %q: %w", c.Source, ErrInvalidConfig)
	}

	switch c.Storage.Kind {
	case StorageLocal:
		if c.Storage.Root == "" {
			return fmt.Errorf("storage: root is required for local storage: %w", ErrInvalidConfig)
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" || c.Storage.S3.Region == "" {
			return fmt.Errorf("storage: s3 bucket and region are required: %w", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("unknown storage kind %q: %w", c.Storage.Kind, ErrInvalidConfig)
	}
	return nil
}

// LastPriceDate is the last day whose prices a run may read: limit sells
// placed on End look LimitWindow-1 days ahead.
func (c *Config) LastPriceDate() time.Time {
	return c.End.AddDate(0, 0, c.LimitWindow-1)
}
