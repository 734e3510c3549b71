package httpapi

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

var validate = validator.New()

// Options tunes optional routes.
type Options struct {
	Logger *slog.Logger
	// AdminReload exposes POST /api/v1/admin/reload.
	AdminReload bool
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *climate.Service, opts Options) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	v1 := app.Group("/api/v1")

	v1.Get("/metrics", func(c *fiber.Ctx) error {
		return c.JSON(service.ListMetrics())
	})

	v1.Get("/global/:metric", func(c *fiber.Ctx) error {
		series, err := service.GlobalSeries(c.Params("metric"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(series)
	})

	v1.Get("/countries", func(c *fiber.Ctx) error {
		names, err := service.CountryNames()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(names)
	})

	v1.Get("/countries/metadata", func(c *fiber.Ctx) error {
		name := c.Query("name")
		if name == "" {
			all, err := service.AllCountryMetadata()
			if err != nil {
				return toHTTPError(err)
			}
			return c.JSON(all)
		}
		md, err := service.CountryMetadata(name)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(md)
	})

	v1.Get("/countries/nearest", func(c *fiber.Ctx) error {
		var q nearestQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		n, err := service.NearestCountry(q.Lat, q.Lon)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(n)
	})

	v1.Get("/series/country", func(c *fiber.Ctx) error {
		q := seriesQuery{Key: c.Query("country"), Other: c.Query("metric")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "country is required")
		}
		if q.Other == "" {
			all, err := service.CountryAllSeries(q.Key)
			if err != nil {
				return toHTTPError(err)
			}
			return c.JSON(all)
		}
		series, err := service.CountrySeries(q.Key, q.Other)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(series)
	})

	v1.Get("/series/metric", func(c *fiber.Ctx) error {
		q := seriesQuery{Key: c.Query("metric"), Other: c.Query("country")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "metric is required")
		}
		if q.Other == "" {
			all, err := service.MetricAllSeries(q.Key)
			if err != nil {
				return toHTTPError(err)
			}
			return c.JSON(all)
		}
		series, err := service.MetricSeries(q.Key, q.Other)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(series)
	})

	v1.Get("/metrics/:metric/years", func(c *fiber.Ctx) error {
		years, err := service.AvailableYears(c.Params("metric"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(years)
	})

	v1.Get("/top/:metric", func(c *fiber.Ctx) error {
		var q topQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		ranked, err := service.TopCountries(q.Metric, q.Limit, q.Ascending)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(ranked)
	})

	v1.Get("/years/:year", func(c *fiber.Ctx) error {
		year, err := c.ParamsInt("year")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "year must be an integer")
		}
		snapshot, err := service.YearSnapshot(year)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(snapshot)
	})

	v1.Get("/forecast/:years", func(c *fiber.Ctx) error {
		var q forecastQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		predictions, err := service.Forecast(q.Years)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(predictions)
	})

	if opts.AdminReload {
		v1.Post("/admin/reload", func(c *fiber.Ctx) error {
			ds, err := service.Reload(c.UserContext())
			if err != nil {
				log.Error("manual reload failed", "error", err)
				return fiber.NewError(fiber.StatusInternalServerError, "reload failed; previous dataset kept")
			}
			return c.JSON(fiber.Map{
				"id":       ds.ID,
				"loadedAt": ds.LoadedAt,
				"stats":    ds.Stats,
			})
		})
	}
}

// toHTTPError maps service errors to HTTP status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, climate.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, climate.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, climate.ErrNoDataset):
		return fiber.NewError(fiber.StatusServiceUnavailable, "data is still loading")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
