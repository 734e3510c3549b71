package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
	"github.com/i474232898/climate-data-aggregation/internal/feeds"
)

// worldBankServer serves two pages per indicator and one page of countries.
func worldBankServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		page := r.URL.Query().Get("page")

		switch {
		case strings.HasPrefix(r.URL.Path, "/country/all/indicator/"):
			code := strings.TrimPrefix(r.URL.Path, "/country/all/indicator/")
			value := "12.5"
			if page == "2" {
				value = "null"
			}
			fmt.Fprintf(w, `[{"page": %s, "pages": "2", "per_page": "20000"},
				[{"country": {"id": "FR", "value": "France"}, "date": "200%s", "value": %s, "indicator": {"id": %q}}]]`,
				page, page, value, code)
		case r.URL.Path == "/country":
			fmt.Fprint(w, `[{"page": 1, "pages": 1},
				[{"id": "FRA", "iso2Code": "FR", "name": "France",
				  "region": {"id": "ECS", "value": "Europe & Central Asia"},
				  "capitalCity": "Paris", "longitude": "2.35097", "latitude": "48.8566"}]]`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestWorldBankIndicatorsCollect(t *testing.T) {
	srv := worldBankServer(t)
	defer srv.Close()

	c := NewWorldBankIndicators(NewWorldBankClient(fastHTTPConfig(srv.Client()), srv.URL))
	assert.Equal(t, "indicators", c.Feed())

	doc, err := c.Collect(context.Background())
	require.NoError(t, err)

	rows, ok := doc.([]IndicatorRow)
	require.True(t, ok)
	require.Len(t, rows, 2*len(climate.Metrics()))

	first := rows[0]
	assert.Equal(t, "France", first.Country)
	assert.Equal(t, "2001", first.Year)
	assert.Equal(t, climate.LabelOf("co2"), first.Meaning)
	require.NotNil(t, first.Value)
	assert.Equal(t, 12.5, *first.Value)
	assert.Nil(t, rows[1].Value)
}

func TestWorldBankIndicatorsRoundTripThroughDecoder(t *testing.T) {
	srv := worldBankServer(t)
	defer srv.Close()

	doc, err := NewWorldBankIndicators(NewWorldBankClient(fastHTTPConfig(srv.Client()), srv.URL)).Collect(context.Background())
	require.NoError(t, err)
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	records, dropped, err := feeds.DecodeIndicators(data)
	require.NoError(t, err)
	assert.Zero(t, dropped)

	ds := climate.NewDataset(climate.DatasetInput{Records: records})
	s, err := ds.CountrySeries("France", "forest")
	require.NoError(t, err)
	assert.Equal(t, []float64{2001}, s.Years)
}

func TestWorldBankCountriesCollect(t *testing.T) {
	srv := worldBankServer(t)
	defer srv.Close()

	c := NewWorldBankCountries(NewWorldBankClient(fastHTTPConfig(srv.Client()), srv.URL+"/"))
	assert.Equal(t, "countries", c.Feed())

	doc, err := c.Collect(context.Background())
	require.NoError(t, err)
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	records, err := feeds.DecodeCountries(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "France", records[0].Name)
	assert.Equal(t, "Europe & Central Asia", records[0].Region)
	assert.Equal(t, "48.8566", records[0].Latitude)
}

func TestWorldBankErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"message": [{"id": "120", "value": "Invalid value"}]}]`)
	}))
	defer srv.Close()

	_, err := NewWorldBankCountries(NewWorldBankClient(fastHTTPConfig(srv.Client()), srv.URL)).Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected response")
}

func TestFlexInt(t *testing.T) {
	var p worldBankPage
	require.NoError(t, json.Unmarshal([]byte(`{"page": "3", "pages": 7}`), &p))
	assert.Equal(t, flexInt(3), p.Page)
	assert.Equal(t, flexInt(7), p.Pages)

	assert.Error(t, json.Unmarshal([]byte(`{"page": "x"}`), &p))
}
