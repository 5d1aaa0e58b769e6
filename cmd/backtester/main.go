// Command backtester replays daily price predictions against a simulated
// exchange and writes one CSV per pair plus a summary report.
//
// Usage:
//
//	backtester --config backtest.yaml run --progress
//	backtester --config backtest.yaml validate
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	logger, err := newLogger(slices.Contains(os.Args[1:], "--debug"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	app := &cli.App{
		Name:  "backtester",
		Usage: "backtest a prediction-driven trading strategy on daily prices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the yaml config",
				EnvVars: []string{"BACKTEST_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "human readable debug logging",
			},
		},
		Commands: []*cli.Command{
			runCommand(logger),
			validateCommand,
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Fatal("backtester failed", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
