package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "climate_api_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	DatasetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_dataset_loads_total",
			Help: "Dataset load attempts by result",
		},
		[]string{"result"},
	)

	DatasetLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "climate_dataset_load_duration_seconds",
			Help:    "Time spent reading feeds and building indices",
			Buckets: prometheus.DefBuckets,
		},
	)

	DatasetRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "climate_dataset_records",
			Help: "Indicator records in the served dataset by outcome",
		},
		[]string{"outcome"},
	)

	DatasetLoadedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "climate_dataset_loaded_timestamp_seconds",
			Help: "Unix time the served dataset was built",
		},
	)

	CollectRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_collect_runs_total",
			Help: "Feed collection runs by feed and result",
		},
		[]string{"feed", "result"},
	)
)

// Middleware returns a fiber handler that records HTTP metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// Use the route pattern so path parameters do not explode cardinality.
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// ObserveLoad records the outcome of a dataset load. It matches
// climate.LoadHook.
func ObserveLoad(d *climate.Dataset, took time.Duration, err error) {
	DatasetLoadDuration.Observe(took.Seconds())
	if err != nil {
		DatasetLoadsTotal.WithLabelValues("error").Inc()
		return
	}
	DatasetLoadsTotal.WithLabelValues("ok").Inc()
	DatasetRecords.WithLabelValues("indexed").Set(float64(d.Stats.Indexed))
	DatasetRecords.WithLabelValues("skipped").Set(float64(d.Stats.Skipped))
	DatasetLoadedTimestamp.Set(float64(d.LoadedAt.Unix()))
}

// ObserveCollect records one feed collection.
func ObserveCollect(feed string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CollectRunsTotal.WithLabelValues(feed, result).Inc()
}
