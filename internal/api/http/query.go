package httpapi

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

// seriesQuery identifies a series lookup: a required entry key and an
// optional second key narrowing it down.
type seriesQuery struct {
	Key   string `validate:"required"`
	Other string
}

// topQuery holds parameters for the ranking endpoint.
type topQuery struct {
	Metric    string `validate:"required"`
	Limit     int
	Ascending bool
}

func (q *topQuery) bind(c *fiber.Ctx) error {
	q.Metric = c.Params("metric")
	q.Limit = climate.DefaultTopLimit

	if s := strings.TrimSpace(c.Query("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("limit must be an integer")
		}
		q.Limit = n
	}
	if s := strings.TrimSpace(c.Query("ascending")); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return errors.New("ascending must be true or false")
		}
		q.Ascending = b
	}
	return validate.Struct(q)
}

// nearestQuery holds the coordinate of a proximity lookup.
type nearestQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

func (q *nearestQuery) bind(c *fiber.Ctx) error {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return errors.New("lat and lon query parameters are required")
	}
	var err error
	if q.Lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return errors.New("lat must be a number")
	}
	if q.Lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return errors.New("lon must be a number")
	}
	return validate.Struct(q)
}

// forecastQuery holds the forecast horizon.
type forecastQuery struct {
	Years int `validate:"required,min=1"`
}

func (q *forecastQuery) bind(c *fiber.Ctx) error {
	n, err := strconv.Atoi(c.Params("years"))
	if err != nil {
		return errors.New("years must be an integer")
	}
	q.Years = n
	return validate.Struct(q)
}
