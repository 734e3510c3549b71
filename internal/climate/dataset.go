package climate

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/climate-data-aggregation/internal/common"
)

// globalPrecision is the number of decimals kept for global indicator values.
const globalPrecision = 2

// DatasetInput groups the decoded feeds a Dataset is built from.
type DatasetInput struct {
	Global    GlobalFeed
	Records   []MetricRecord
	Countries []CountryRecord
}

// Dataset is one immutable, fully built set of indices. All query methods
// are safe for concurrent use because nothing mutates a Dataset after
// NewDataset returns.
type Dataset struct {
	ID       string
	LoadedAt time.Time
	Stats    BuildStats

	global    map[string]Series
	byCountry CountryIndex
	byMetric  MetricIndex
	metadata  *MetadataIndex
	countries []string
}

// NewDataset builds every index from the decoded feeds.
func NewDataset(in DatasetInput) *Dataset {
	byCountry, byMetric, stats := BuildIndices(in.Records)

	countries := make([]string, 0, len(byCountry))
	for c := range byCountry {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	return &Dataset{
		ID:        uuid.NewString(),
		LoadedAt:  time.Now().UTC(),
		Stats:     stats,
		global:    buildGlobal(in.Global),
		byCountry: byCountry,
		byMetric:  byMetric,
		metadata:  BuildMetadata(in.Countries),
		countries: countries,
	}
}

// buildGlobal keeps only the catalogued indicators and sorts their points
// numerically by year. Years that parse to the same number keep the value of
// the lexically last key.
func buildGlobal(feed GlobalFeed) map[string]Series {
	out := make(map[string]Series, len(globalMetrics))
	for _, g := range globalMetrics {
		points, ok := feed[g.FeedID]
		if !ok {
			continue
		}

		keys := make([]string, 0, len(points))
		for k := range points {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		byYear := make(map[float64]float64, len(points))
		for _, k := range keys {
			v := points[k]
			if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
				continue
			}
			year, err := strconv.ParseFloat(strings.TrimSpace(k), 64)
			if err != nil || math.IsNaN(year) || math.IsInf(year, 0) {
				continue
			}
			byYear[year] = common.Round(*v, globalPrecision)
		}

		out[g.Key] = seriesFromFloatYears(byYear)
	}
	return out
}

func seriesFromFloatYears(points map[float64]float64) Series {
	s := Series{
		Years:  make([]float64, 0, len(points)),
		Values: make([]float64, 0, len(points)),
	}
	for y := range points {
		s.Years = append(s.Years, y)
	}
	sort.Float64s(s.Years)
	for _, y := range s.Years {
		s.Values = append(s.Values, points[y])
	}
	return s
}

func seriesFromYears(points map[int]float64) Series {
	years := make([]int, 0, len(points))
	for y := range points {
		years = append(years, y)
	}
	sort.Ints(years)

	s := Series{
		Years:  make([]float64, len(years)),
		Values: make([]float64, len(years)),
	}
	for i, y := range years {
		s.Years[i] = float64(y)
		s.Values[i] = points[y]
	}
	return s
}

// Metadata returns the country metadata index.
func (d *Dataset) Metadata() *MetadataIndex { return d.metadata }

// CountryNames returns every country present in the indicator indices,
// sorted by name.
func (d *Dataset) CountryNames() []string {
	out := make([]string, len(d.countries))
	copy(out, d.countries)
	return out
}

// HasValue reports whether the country-first index holds a value for the
// given coordinates, together with it.
func (d *Dataset) HasValue(country, metric string, year int) (float64, bool) {
	v, ok := d.byCountry[country][metric][year]
	return v, ok
}

// MetricValue is the metric-first counterpart of HasValue.
func (d *Dataset) MetricValue(metric, country string, year int) (float64, bool) {
	v, ok := d.byMetric[metric][country][year]
	return v, ok
}

// Each calls fn for every fact of the country-first index.
func (d *Dataset) Each(fn func(country, metric string, year int, value float64)) {
	for c, metrics := range d.byCountry {
		for m, years := range metrics {
			for y, v := range years {
				fn(c, m, y, v)
			}
		}
	}
}

// EachByMetric calls fn for every fact of the metric-first index.
func (d *Dataset) EachByMetric(fn func(metric, country string, year int, value float64)) {
	for m, countries := range d.byMetric {
		for c, years := range countries {
			for y, v := range years {
				fn(m, c, y, v)
			}
		}
	}
}
