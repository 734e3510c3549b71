package climate

import (
	"math"
	"strconv"
	"strings"
)

// BuildStats summarizes one index build.
type BuildStats struct {
	Records int `json:"records"`
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// BuildIndices builds the country-first and metric-first indices from the
// per-country feed in a single pass, so both always hold the same facts.
// Records with a missing value, a non-finite value or a year that is not a
// whole number are skipped. A repeated (country, metric, year) keeps the
// value of the later record in both indices.
func BuildIndices(records []MetricRecord) (CountryIndex, MetricIndex, BuildStats) {
	byCountry := make(CountryIndex)
	byMetric := make(MetricIndex)
	stats := BuildStats{Records: len(records)}

	for _, r := range records {
		country := strings.TrimSpace(r.Country)
		if country == "" || r.Value == nil {
			stats.Skipped++
			continue
		}
		value := *r.Value
		if math.IsNaN(value) || math.IsInf(value, 0) {
			stats.Skipped++
			continue
		}
		year, ok := parseYear(r.Year)
		if !ok {
			stats.Skipped++
			continue
		}
		metric := KeyOf(strings.TrimSpace(r.Meaning))
		if metric == "" {
			stats.Skipped++
			continue
		}

		insert(byCountry, country, metric, year, value)
		insert(byMetric, metric, country, year, value)
		stats.Indexed++
	}

	return byCountry, byMetric, stats
}

func insert(idx map[string]map[string]map[int]float64, outer, inner string, year int, value float64) {
	mid, ok := idx[outer]
	if !ok {
		mid = make(map[string]map[int]float64)
		idx[outer] = mid
	}
	years, ok := mid[inner]
	if !ok {
		years = make(map[int]float64)
		mid[inner] = years
	}
	years[year] = value
}

// parseYear accepts "2001", " 2001 " and "2001.0"; fractional years are
// rejected.
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
