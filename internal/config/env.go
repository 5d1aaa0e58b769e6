package config

import (
	"os"
	"strconv"
	"strings"
)

// applyEnvOverrides overwrites fields whose BACKTEST_* variable is set and
// non-empty. Secrets belong here rather than in the YAML file.
func applyEnvOverrides(cfg *ConfigTmp) {
	setStringSlice(&cfg.Pairs, "BACKTEST_PAIRS")
	setStr(&cfg.Start, "BACKTEST_START")
	setStr(&cfg.End, "BACKTEST_END")
	setStr(&cfg.InitialDeposit, "BACKTEST_INITIAL_DEPOSIT")
	setStr(&cfg.FeeRate, "BACKTEST_FEE_RATE")
	setInt(&cfg.LimitWindow, "BACKTEST_LIMIT_WINDOW")
	setInt(&cfg.Parallelism, "BACKTEST_PARALLELISM")
	setStr(&cfg.PredictionThreshold, "BACKTEST_PREDICTION_THRESHOLD")

	setStr(&cfg.Source, "BACKTEST_SOURCE")
	setStr(&cfg.DatabaseURL, "BACKTEST_DATABASE_URL")

	setStr(&cfg.Data.OpenPrices, "BACKTEST_DATA_OPEN_PRICES")
	setStr(&cfg.Data.MaxPrices, "BACKTEST_DATA_MAX_PRICES")
	setStr(&cfg.Data.PredictionsDir, "BACKTEST_DATA_PREDICTIONS_DIR")
	setStr(&cfg.Data.OutputDir, "BACKTEST_DATA_OUTPUT_DIR")

	setStr(&cfg.Storage.Kind, "BACKTEST_STORAGE_KIND")
	setStr(&cfg.Storage.Root, "BACKTEST_STORAGE_ROOT")
	setStr(&cfg.Storage.S3.Endpoint, "BACKTEST_S3_ENDPOINT")
	setStr(&cfg.Storage.S3.Region, "BACKTEST_S3_REGION")
	setStr(&cfg.Storage.S3.Bucket, "BACKTEST_S3_BUCKET")
	setStr(&cfg.Storage.S3.Prefix, "BACKTEST_S3_PREFIX")
	setStr(&cfg.Storage.S3.AccessKey, "BACKTEST_S3_ACCESS_KEY")
	setStr(&cfg.Storage.S3.SecretKey, "BACKTEST_S3_SECRET_KEY")
	setBool(&cfg.Storage.S3.ForcePathStyle, "BACKTEST_S3_FORCE_PATH_STYLE")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		*dst = cleaned
	}
}
