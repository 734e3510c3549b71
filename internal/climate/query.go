package climate

import (
	"sort"

	"github.com/i474232898/climate-data-aggregation/internal/common"
)

// DefaultTopLimit is used by callers that do not specify a ranking size.
const DefaultTopLimit = 10

// resolveMetric normalizes catalogued keys and passes anything else through
// untouched, so labels the catalog does not know still match the index.
func resolveMetric(key string) string {
	if IsKnownMetric(key) {
		return common.NormalizeKey(key)
	}
	return key
}

// GlobalSeries returns the global indicator series for a metric key sorted by
// year. Unknown keys yield an empty series.
func (d *Dataset) GlobalSeries(metricKey string) Series {
	s, ok := d.global[common.NormalizeKey(metricKey)]
	if !ok {
		return emptySeries()
	}
	return Series{
		Years:  append([]float64{}, s.Years...),
		Values: append([]float64{}, s.Values...),
	}
}

// GlobalSeriesSet returns every loaded global series keyed by metric key.
func (d *Dataset) GlobalSeriesSet() map[string]Series {
	out := make(map[string]Series, len(d.global))
	for k := range d.global {
		out[k] = d.GlobalSeries(k)
	}
	return out
}

// CountrySeries returns the series of one metric for one country, read from
// the country-first index.
func (d *Dataset) CountrySeries(country, metric string) (Series, error) {
	metrics, ok := d.byCountry[country]
	if !ok {
		return Series{}, notFoundf("country %q", country)
	}
	years, ok := metrics[resolveMetric(metric)]
	if !ok {
		return Series{}, notFoundf("metric %q for country %q", metric, country)
	}
	return seriesFromYears(years), nil
}

// CountryAllSeries returns every metric series recorded for a country.
func (d *Dataset) CountryAllSeries(country string) (map[string]Series, error) {
	metrics, ok := d.byCountry[country]
	if !ok {
		return nil, notFoundf("country %q", country)
	}
	out := make(map[string]Series, len(metrics))
	for m, years := range metrics {
		out[m] = seriesFromYears(years)
	}
	return out, nil
}

// MetricSeries returns the series of one metric for one country, read from
// the metric-first index. It always agrees with CountrySeries.
func (d *Dataset) MetricSeries(metric, country string) (Series, error) {
	countries, ok := d.byMetric[resolveMetric(metric)]
	if !ok {
		return Series{}, notFoundf("metric %q", metric)
	}
	years, ok := countries[country]
	if !ok {
		return Series{}, notFoundf("country %q for metric %q", country, metric)
	}
	return seriesFromYears(years), nil
}

// MetricAllSeries returns the series of every country holding the metric.
func (d *Dataset) MetricAllSeries(metric string) (map[string]Series, error) {
	countries, ok := d.byMetric[resolveMetric(metric)]
	if !ok {
		return nil, notFoundf("metric %q", metric)
	}
	out := make(map[string]Series, len(countries))
	for c, years := range countries {
		out[c] = seriesFromYears(years)
	}
	return out, nil
}

// TopCountries ranks countries by the mean of all their values for a metric.
// The order is descending unless ascending is set; equal means are ordered by
// country name ascending in both directions. limit <= 0 and unknown metrics
// yield an empty ranking.
func (d *Dataset) TopCountries(metric string, limit int, ascending bool) []RankedCountry {
	out := []RankedCountry{}
	if limit <= 0 {
		return out
	}
	countries, ok := d.byMetric[resolveMetric(metric)]
	if !ok {
		return out
	}

	for c, years := range countries {
		if len(years) == 0 {
			continue
		}
		var sum float64
		for _, v := range years {
			sum += v
		}
		md, _ := d.metadata.Get(c)
		out = append(out, RankedCountry{
			Country:      c,
			AverageValue: sum / float64(len(years)),
			Years:        len(years),
			Metadata:     md,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AverageValue != b.AverageValue {
			if ascending {
				return a.AverageValue < b.AverageValue
			}
			return a.AverageValue > b.AverageValue
		}
		return a.Country < b.Country
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AvailableYears returns the sorted set of years with at least one value for
// the metric.
func (d *Dataset) AvailableYears(metric string) []int {
	seen := make(map[int]struct{})
	for _, years := range d.byMetric[resolveMetric(metric)] {
		for y := range years {
			seen[y] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// YearSnapshot returns, for every country with known coordinates, the values
// of all metrics it recorded in the given year. Countries without any value
// that year are left out. The result is sorted by country name.
func (d *Dataset) YearSnapshot(year int) []CountryYear {
	out := []CountryYear{}
	for _, c := range d.countries {
		md, ok := d.metadata.Get(c)
		if !ok || md.Coordinates == nil {
			continue
		}
		values := make(map[string]float64)
		for m, years := range d.byCountry[c] {
			if v, ok := years[year]; ok {
				values[m] = v
			}
		}
		if len(values) == 0 {
			continue
		}
		out = append(out, CountryYear{
			Country:     c,
			Coordinates: *md.Coordinates,
			Values:      values,
		})
	}
	return out
}
