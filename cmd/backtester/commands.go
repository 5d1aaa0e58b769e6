package main

import (
	"fmt"

	"forecastbt/internal/blob"
	"forecastbt/internal/config"
	"forecastbt/internal/engine"
	"forecastbt/internal/feed"
	"forecastbt/internal/repository"
	"forecastbt/types"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func runCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run the backtest and write the reports",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "show a progress bar",
			},
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "create the postgres input tables before loading",
			},
		},
		Action: func(c *cli.Context) error {
			return runBacktest(c, logger)
		},
	}
}

var validateCommand = &cli.Command{
	Name:   "validate",
	Usage:  "check the config without running",
	Action: validateConfig,
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "config ok: %d pairs, %s to %s, source %s, storage %s\n",
		len(cfg.Pairs), types.DateKey(cfg.Start), types.DateKey(cfg.End), cfg.Source, cfg.Storage.Kind)
	return nil
}

func runBacktest(c *cli.Context, logger *zap.Logger) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	store, err := newStore(c, cfg)
	if err != nil {
		return err
	}

	inputs, err := loadInputs(c, cfg, store, logger)
	if err != nil {
		logger.Error("load inputs", zap.Error(err))
		return err
	}

	runCfg := engine.NewRunConfig(cfg.Pairs, cfg.Start, cfg.End, cfg.InitialDeposit)
	runCfg.FeeRate = cfg.FeeRate
	runCfg.LimitWindow = cfg.LimitWindow
	runCfg.Parallelism = cfg.Parallelism
	runCfg.ShowProgress = c.Bool("progress")

	result, err := engine.NewEngine(runCfg, inputs.prices, inputs.predictions, logger).Run(ctx)
	if err != nil {
		return err
	}

	written, err := engine.WritePairCSVs(ctx, store, cfg.Data.OutputDir, engine.Export(result.Calendar))
	if err != nil {
		logger.Error("write reports", zap.Error(err), zap.Strings("written", written))
		return err
	}
	logger.Info("reports written", zap.Strings("files", written))

	engine.NewReport(result).Print(c.App.Writer)
	return nil
}

func newStore(c *cli.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.Storage.Kind == config.StorageS3 {
		s3, err := blob.NewS3(c.Context, cfg.Storage.S3)
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	return blob.NewDir(cfg.Storage.Root), nil
}

type inputs struct {
	prices      *feed.PriceTable
	predictions *feed.Predictions
}

func loadInputs(c *cli.Context, cfg *config.Config, store blob.Reader, logger *zap.Logger) (*inputs, error) {
	ctx := c.Context
	if cfg.Source == config.SourcePostgres {
		db, err := repository.NewDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		if c.Bool("migrate") {
			if err := db.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		prices, err := db.LoadPrices(ctx, cfg.Pairs, cfg.Start, cfg.LastPriceDate())
		if err != nil {
			return nil, err
		}
		predictions, err := db.LoadPredictions(ctx, cfg.Start, cfg.End, cfg.PredictionThreshold)
		if err != nil {
			return nil, err
		}
		return &inputs{prices: prices, predictions: predictions}, nil
	}

	loader := feed.NewLoader(store, logger.Named("feed"))
	prices, err := loader.LoadPrices(ctx, cfg.Data.OpenPrices, cfg.Data.MaxPrices)
	if err != nil {
		return nil, err
	}
	predictions, err := loader.LoadPredictions(ctx, cfg.Data.PredictionsDir, types.DateRange(cfg.Start, cfg.End), cfg.PredictionThreshold)
	if err != nil {
		return nil, err
	}
	return &inputs{prices: prices, predictions: predictions}, nil
}
