package climate

import (
	"github.com/i474232898/climate-data-aggregation/internal/common"
)

// DefaultMetric is the metric key clients should show first.
const DefaultMetric = "co2"

// MetricInfo describes one per-country indicator of the World Bank feed.
type MetricInfo struct {
	Key   string `json:"key"`
	Label string `json:"name"`

	// Indicator is the World Bank indicator code used by the collector.
	Indicator string `json:"indicator"`
}

// GlobalInfo describes one planet-wide indicator of the vital-signs feed.
type GlobalInfo struct {
	Key string `json:"key"`
	// FeedID is the identifier used as top-level key in the global file.
	FeedID string `json:"id"`
}

var countryMetrics = []MetricInfo{
	{Key: "co2", Label: "Carbon dioxide (CO2) emissions (total) excluding LULUCF (Mt CO2e)", Indicator: "EN.GHG.CO2.MT.CE.AR5"},
	{Key: "renewable", Label: "Renewable energy consumption (% of total final energy consumption)", Indicator: "EG.FEC.RNEW.ZS"},
	{Key: "forest", Label: "Forest area (% of land area)", Indicator: "AG.LND.FRST.ZS"},
	{Key: "air_pollution", Label: "PM2.5 air pollution, mean annual exposure (micrograms per cubic meter)", Indicator: "EN.ATM.PM25.MC.M3"},
}

var globalMetrics = []GlobalInfo{
	{Key: "co2", FeedID: "carbon-dioxide"},
	{Key: "methane", FeedID: "methane"},
	{Key: "temperature", FeedID: "global-temperature"},
	{Key: "ocean_warming", FeedID: "ocean-warming"},
	{Key: "sea_level", FeedID: "sea-level"},
	{Key: "arctic_sea_ice", FeedID: "arctic-sea-ice"},
}

var (
	labelByKey  = make(map[string]string, len(countryMetrics))
	keyByLabel  = make(map[string]string, len(countryMetrics))
	feedIDByKey = make(map[string]string, len(globalMetrics))
	keyByFeedID = make(map[string]string, len(globalMetrics))
	metricByKey = make(map[string]MetricInfo, len(countryMetrics))
)

func init() {
	for _, m := range countryMetrics {
		labelByKey[m.Key] = m.Label
		keyByLabel[m.Label] = m.Key
		metricByKey[m.Key] = m
	}
	for _, g := range globalMetrics {
		feedIDByKey[g.Key] = g.FeedID
		keyByFeedID[g.FeedID] = g.Key
	}
}

// Metrics returns the per-country metric catalog in display order.
func Metrics() []MetricInfo {
	out := make([]MetricInfo, len(countryMetrics))
	copy(out, countryMetrics)
	return out
}

// GlobalMetrics returns the global indicator catalog.
func GlobalMetrics() []GlobalInfo {
	out := make([]GlobalInfo, len(globalMetrics))
	copy(out, globalMetrics)
	return out
}

// LookupLabel returns the feed label for a metric key. The key is matched
// case-insensitively.
func LookupLabel(key string) (string, bool) {
	label, ok := labelByKey[common.NormalizeKey(key)]
	return label, ok
}

// LabelOf returns the feed label for a metric key, or key itself when the key
// is not part of the catalog. Use LookupLabel to tell the two apart.
func LabelOf(key string) string {
	if label, ok := LookupLabel(key); ok {
		return label
	}
	return key
}

// KeyOf maps a feed label back to its metric key. Unknown labels are returned
// unchanged.
func KeyOf(label string) string {
	if key, ok := keyByLabel[label]; ok {
		return key
	}
	return label
}

// IsKnownMetric reports whether key names a per-country metric.
func IsKnownMetric(key string) bool {
	_, ok := LookupLabel(key)
	return ok
}

// MetricByKey returns the catalog entry for a per-country metric key.
func MetricByKey(key string) (MetricInfo, bool) {
	m, ok := metricByKey[common.NormalizeKey(key)]
	return m, ok
}

// LookupFeedID returns the global feed identifier for a global metric key.
func LookupFeedID(key string) (string, bool) {
	id, ok := feedIDByKey[common.NormalizeKey(key)]
	return id, ok
}

// FeedIDOf returns the global feed identifier for key, passing unknown keys
// through unchanged.
func FeedIDOf(key string) string {
	if id, ok := LookupFeedID(key); ok {
		return id
	}
	return key
}

// KeyOfFeedID maps a global feed identifier back to its metric key.
func KeyOfFeedID(id string) string {
	if key, ok := keyByFeedID[id]; ok {
		return key
	}
	return id
}
