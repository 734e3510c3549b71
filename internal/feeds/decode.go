// Package feeds decodes the raw JSON files produced by the collectors into
// the typed records the climate indices are built from. Decoding is lenient
// per record and strict per file: a file that is not the expected JSON shape
// fails as a whole, while individual malformed records are dropped.
package feeds

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

var (
	errNotArray  = errors.New("expected a JSON array")
	errNotObject = errors.New("expected a JSON object")
)

type rawIndicator struct {
	Country json.RawMessage `json:"country"`
	Year    json.RawMessage `json:"year"`
	Meaning json.RawMessage `json:"meaning"`
	Value   json.RawMessage `json:"value"`
}

type rawCountry struct {
	Name      json.RawMessage `json:"name"`
	ID        json.RawMessage `json:"id"`
	ISO2Code  json.RawMessage `json:"iso2Code"`
	Region    json.RawMessage `json:"region"`
	Capital   json.RawMessage `json:"capitalCity"`
	Latitude  json.RawMessage `json:"latitude"`
	Longitude json.RawMessage `json:"longitude"`
}

// DecodeIndicators decodes the per-country indicator feed, an array of
// {country, year, meaning, value} objects. It returns the decoded records and
// the number of array elements that were not objects and got dropped.
func DecodeIndicators(data []byte) ([]climate.MetricRecord, int, error) {
	if !isArray(data) {
		return nil, 0, errNotArray
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, 0, errors.Join(errNotArray, err)
	}

	records := make([]climate.MetricRecord, 0, len(elems))
	dropped := 0
	for _, e := range elems {
		var r rawIndicator
		if !isObject(e) || json.Unmarshal(e, &r) != nil {
			dropped++
			continue
		}
		year, _ := text(r.Year)
		meaning, _ := text(r.Meaning)
		records = append(records, climate.MetricRecord{
			Country: named(r.Country),
			Year:    year,
			Meaning: meaning,
			Value:   number(r.Value),
		})
	}
	return records, dropped, nil
}

// DecodeGlobal decodes the global indicator feed, an object mapping feed
// identifiers to {year: value} objects. Identifiers whose payload is not an
// object are skipped.
func DecodeGlobal(data []byte) (climate.GlobalFeed, error) {
	if !isObject(data) {
		return nil, errNotObject
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, errors.Join(errNotObject, err)
	}

	feed := make(climate.GlobalFeed, len(top))
	for id, payload := range top {
		var points map[string]json.RawMessage
		if !isObject(payload) || json.Unmarshal(payload, &points) != nil {
			continue
		}
		values := make(map[string]*float64, len(points))
		for year, v := range points {
			values[year] = number(v)
		}
		feed[id] = values
	}
	return feed, nil
}

// DecodeCountries decodes the country metadata feed. The record array is
// taken from the first element of the enclosing array; the World Bank
// [page, records] envelope and a bare record array are accepted too.
func DecodeCountries(data []byte) ([]climate.CountryRecord, error) {
	if !isArray(data) {
		return nil, errNotArray
	}
	var top []json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, errors.Join(errNotArray, err)
	}

	elems := top
	for _, e := range top {
		if isArray(e) {
			if err := json.Unmarshal(e, &elems); err != nil {
				return nil, errors.Join(errNotArray, err)
			}
			break
		}
	}

	out := make([]climate.CountryRecord, 0, len(elems))
	for _, e := range elems {
		var r rawCountry
		if !isObject(e) || json.Unmarshal(e, &r) != nil {
			continue
		}
		id, _ := text(r.ID)
		iso, _ := text(r.ISO2Code)
		capital, _ := text(r.Capital)
		lat, _ := text(r.Latitude)
		lon, _ := text(r.Longitude)
		out = append(out, climate.CountryRecord{
			Name:      named(r.Name),
			ID:        id,
			ISO2Code:  iso,
			Region:    named(r.Region),
			Capital:   capital,
			Latitude:  lat,
			Longitude: lon,
		})
	}
	return out, nil
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isObject(raw json.RawMessage) bool { return firstByte(raw) == '{' }

func isArray(raw json.RawMessage) bool { return firstByte(raw) == '[' }

// text returns strings as-is and numbers in their literal form.
func text(raw json.RawMessage) (string, bool) {
	switch c := firstByte(raw); {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	case c == '-' || (c >= '0' && c <= '9'):
		return string(bytes.TrimSpace(raw)), true
	default:
		return "", false
	}
}

// number reads a JSON number or a numeric string; anything else is nil.
func number(raw json.RawMessage) *float64 {
	s, ok := text(raw)
	if !ok || s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// named reads either a plain string or a World Bank {id, value} object.
func named(raw json.RawMessage) string {
	if isObject(raw) {
		var obj struct {
			Value json.RawMessage `json:"value"`
			Name  json.RawMessage `json:"name"`
		}
		if json.Unmarshal(raw, &obj) != nil {
			return ""
		}
		if s, ok := text(obj.Value); ok && s != "" {
			return s
		}
		s, _ := text(obj.Name)
		return s
	}
	s, _ := text(raw)
	return s
}
