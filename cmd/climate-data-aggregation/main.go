package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	httpapi "github.com/i474232898/climate-data-aggregation/internal/api/http"
	"github.com/i474232898/climate-data-aggregation/internal/climate"
	"github.com/i474232898/climate-data-aggregation/internal/collect"
	"github.com/i474232898/climate-data-aggregation/internal/config"
	"github.com/i474232898/climate-data-aggregation/internal/feeds"
	"github.com/i474232898/climate-data-aggregation/internal/logging"
	"github.com/i474232898/climate-data-aggregation/internal/metrics"
	"github.com/i474232898/climate-data-aggregation/internal/scheduler"
	"github.com/i474232898/climate-data-aggregation/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	portFlag := flag.String("port", "", "HTTP listen port (overrides PORT)")
	dataDirFlag := flag.String("data-dir", "", "directory holding the feed files (overrides DATA_DIR)")
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	collectOnStartFlag := flag.Bool("collect-on-start", false, "refresh the feed files from upstream before the first load")
	flag.Parse()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *portFlag != "" {
		cfg.Port = *portFlag
	}
	if *dataDirFlag != "" {
		cfg.DataDir = *dataDirFlag
	}
	if *verboseFlag {
		cfg.LogLevel = "debug"
	}

	log := logging.New(os.Stdout, cfg.LogLevel)

	loader, err := feeds.NewFileLoader(log, cfg.GlobalPath(), cfg.IndicatorsPath(), cfg.CountriesPath())
	if err != nil {
		return err
	}

	// In-memory store holding the published dataset.
	memStore := store.NewMemoryStore()

	service, err := climate.NewService(memStore, loader, climate.ServiceConfig{
		Logger:           log,
		TopCacheTTL:      cfg.TopCacheTTL,
		MaxForecastYears: cfg.ForecastMaxYears,
		OnLoad:           metrics.ObserveLoad,
	})
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	// Collectors share one HTTP client for outbound calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	collector := collect.NewRunner(log, collect.DefaultTargets(log, collect.DefaultHTTPConfig(httpClient),
		collect.Paths{
			Global:     cfg.GlobalPath(),
			Indicators: cfg.IndicatorsPath(),
			Countries:  cfg.CountriesPath(),
		},
		collect.Endpoints{
			WorldBank:  cfg.WorldBankURL,
			VitalSigns: cfg.VitalSignsURL,
		},
	), metrics.ObserveCollect)

	if *collectOnStartFlag {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		if err := collector.Run(ctx); err != nil {
			log.Warn("initial collect finished with errors", "error", err)
		}
		cancel()
	}

	// The first load is fatal: there is nothing to serve without it.
	if _, err := service.Reload(context.Background()); err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	sched := scheduler.New(log, service, collector, cfg.ReloadInterval, cfg.CollectInterval)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "climate-data-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
	}))
	app.Use(metrics.Middleware())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status":  "ok",
			"service": "climate-data-aggregation",
		}
		if ds, err := service.Dataset(); err == nil {
			status["dataset"] = ds.ID
			status["loadedAt"] = ds.LoadedAt
		}
		return c.JSON(status)
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, httpapi.Options{
		Logger:      log,
		AdminReload: cfg.AdminReload,
	})

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	go func() {
		log.Info("http server listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	return nil
}
