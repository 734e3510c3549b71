package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/i474232898/climate-data-aggregation/internal/collect"
	"github.com/i474232898/climate-data-aggregation/internal/config"
	"github.com/i474232898/climate-data-aggregation/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dataDirFlag := flag.String("data-dir", "", "directory to write the feed files to (overrides DATA_DIR)")
	onlyFlag := flag.StringSlice("only", nil, "collect only these feeds (global, indicators, countries)")
	timeoutFlag := flag.Duration("timeout", 10*time.Minute, "overall collection timeout")
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *dataDirFlag != "" {
		cfg.DataDir = *dataDirFlag
	}
	if *verboseFlag {
		cfg.LogLevel = "debug"
	}
	log := logging.New(os.Stdout, cfg.LogLevel)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	targets := collect.DefaultTargets(log, collect.DefaultHTTPConfig(httpClient),
		collect.Paths{
			Global:     cfg.GlobalPath(),
			Indicators: cfg.IndicatorsPath(),
			Countries:  cfg.CountriesPath(),
		},
		collect.Endpoints{
			WorldBank:  cfg.WorldBankURL,
			VitalSigns: cfg.VitalSignsURL,
		},
	)
	if targets, err = collect.FilterTargets(targets, *onlyFlag); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeoutFlag)
	defer cancel()

	start := time.Now()
	if err := collect.NewRunner(log, targets, nil).Run(ctx); err != nil {
		return err
	}
	log.Info("collection complete", logging.Since(start))
	return nil
}
