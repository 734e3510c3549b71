package climate

import (
	"math"
	"sort"
	"strconv"
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
)

// UnknownField replaces metadata string fields the feed left empty.
const UnknownField = "Unknown"

const (
	geohashPrecision = 7
	earthRadiusKm    = 6371.0088
)

// MetadataIndex is the name-keyed country metadata lookup. It is immutable
// after BuildMetadata returns.
type MetadataIndex struct {
	byName  map[string]CountryMetadata
	byFold  map[string]string // lowercased name → name
	byCode  map[string]string // lowercased id / iso2 code → name
	ordered []string
	points  []s2.LatLng
}

// BuildMetadata filters and normalizes raw country records. A record is kept
// only when it has a non-empty name and both coordinates parse as finite
// numbers within range. Empty region, capital or codes become UnknownField.
// When a name repeats, the later record wins.
func BuildMetadata(records []CountryRecord) *MetadataIndex {
	idx := &MetadataIndex{
		byName: make(map[string]CountryMetadata),
		byFold: make(map[string]string),
		byCode: make(map[string]string),
	}

	for _, r := range records {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		lat, ok := parseCoordinate(r.Latitude, 90)
		if !ok {
			continue
		}
		lon, ok := parseCoordinate(r.Longitude, 180)
		if !ok {
			continue
		}

		hash := geohash.Encode(lat, lon)
		if len(hash) > geohashPrecision {
			hash = hash[:geohashPrecision]
		}

		idx.byName[name] = CountryMetadata{
			Name:        name,
			ID:          orUnknown(r.ID),
			ISOCode:     orUnknown(r.ISO2Code),
			Region:      orUnknown(r.Region),
			Capital:     orUnknown(r.Capital),
			Coordinates: &Coordinates{Lat: lat, Lon: lon},
			Geohash:     hash,
		}
	}

	idx.ordered = make([]string, 0, len(idx.byName))
	for name := range idx.byName {
		idx.ordered = append(idx.ordered, name)
	}
	sort.Strings(idx.ordered)

	idx.points = make([]s2.LatLng, len(idx.ordered))
	for i, name := range idx.ordered {
		m := idx.byName[name]
		idx.byFold[strings.ToLower(name)] = name
		for _, code := range []string{m.ID, m.ISOCode} {
			if code != UnknownField {
				idx.byCode[strings.ToLower(code)] = name
			}
		}
		idx.points[i] = s2.LatLngFromDegrees(m.Coordinates.Lat, m.Coordinates.Lon)
	}

	return idx
}

// Len returns the number of countries with usable metadata.
func (m *MetadataIndex) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ordered)
}

// Get returns the metadata stored under the exact country name.
func (m *MetadataIndex) Get(name string) (CountryMetadata, bool) {
	if m == nil {
		return CountryMetadata{}, false
	}
	md, ok := m.byName[name]
	return md, ok
}

// Lookup resolves a country by exact name, then case-insensitive name, then
// ISO3 id or ISO2 code.
func (m *MetadataIndex) Lookup(query string) (CountryMetadata, bool) {
	if m == nil {
		return CountryMetadata{}, false
	}
	query = strings.TrimSpace(query)
	if md, ok := m.byName[query]; ok {
		return md, true
	}
	key := strings.ToLower(query)
	if name, ok := m.byFold[key]; ok {
		return m.byName[name], true
	}
	if name, ok := m.byCode[key]; ok {
		return m.byName[name], true
	}
	return CountryMetadata{}, false
}

// All returns every entry keyed by name.
func (m *MetadataIndex) All() map[string]CountryMetadata {
	out := make(map[string]CountryMetadata, m.Len())
	if m == nil {
		return out
	}
	for k, v := range m.byName {
		out[k] = v
	}
	return out
}

// Nearest returns the country whose reference coordinates are closest to the
// given position. Ties resolve to the alphabetically first name.
func (m *MetadataIndex) Nearest(lat, lon float64) (NearestCountry, bool) {
	if m.Len() == 0 || !validCoordinate(lat, 90) || !validCoordinate(lon, 180) {
		return NearestCountry{}, false
	}
	query := s2.LatLngFromDegrees(lat, lon)

	best := -1
	bestDist := math.Inf(1)
	for i, p := range m.points {
		d := float64(query.Distance(p))
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	return NearestCountry{
		Country:    m.byName[m.ordered[best]],
		DistanceKm: bestDist * earthRadiusKm,
	}, true
}

func parseCoordinate(s string, limit float64) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !validCoordinate(v, limit) {
		return 0, false
	}
	return v, true
}

func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) <= limit
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownField
	}
	return s
}
