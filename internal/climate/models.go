package climate

// MetricRecord is one row of the per-country indicator feed after decoding.
// Year is kept in its textual form and Value is nil when the feed carried a
// null or a value that could not be read as a number.
type MetricRecord struct {
	Country string
	Year    string
	Meaning string
	Value   *float64
}

// CountryRecord is one row of the country metadata feed after decoding.
// Latitude and Longitude are kept textual; the World Bank API emits them as
// strings and an empty string means the coordinate is missing.
type CountryRecord struct {
	Name      string
	ID        string
	ISO2Code  string
	Region    string
	Capital   string
	Latitude  string
	Longitude string
}

// GlobalFeed maps a global feed identifier (e.g. "global-temperature") to its
// year → value points. Nil values are dropped when the dataset is built.
type GlobalFeed map[string]map[string]*float64

// CountryIndex maps country → metric key → year → value.
type CountryIndex map[string]map[string]map[int]float64

// MetricIndex maps metric key → country → year → value.
type MetricIndex map[string]map[string]map[int]float64

// Series is a time series as two parallel slices sorted by year.
type Series struct {
	Years  []float64 `json:"years"`
	Values []float64 `json:"values"`
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Years) }

// Empty reports whether the series holds no points.
func (s Series) Empty() bool { return len(s.Years) == 0 }

// Last returns the most recent value.
func (s Series) Last() (float64, bool) {
	if s.Empty() {
		return 0, false
	}
	return s.Values[len(s.Values)-1], true
}

func emptySeries() Series {
	return Series{Years: []float64{}, Values: []float64{}}
}

// Coordinates is a WGS84 position in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CountryMetadata holds descriptive attributes of a country.
type CountryMetadata struct {
	Name        string       `json:"name,omitempty"`
	ID          string       `json:"id,omitempty"`
	ISOCode     string       `json:"isoCode,omitempty"`
	Region      string       `json:"region,omitempty"`
	Capital     string       `json:"capital,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Geohash     string       `json:"geohash,omitempty"`
}

// RankedCountry is one entry of a top-N ranking.
type RankedCountry struct {
	Country      string          `json:"country"`
	AverageValue float64         `json:"averageValue"`
	Years        int             `json:"years"`
	Metadata     CountryMetadata `json:"metadata"`
}

// CountryYear holds every metric value a country recorded in one year.
type CountryYear struct {
	Country     string             `json:"country"`
	Coordinates Coordinates        `json:"coordinates"`
	Values      map[string]float64 `json:"values"`
}

// NearestCountry is the result of a proximity lookup.
type NearestCountry struct {
	Country    CountryMetadata `json:"country"`
	DistanceKm float64         `json:"distanceKm"`
}
