package feeds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeIndicators(t *testing.T) {
	data := []byte(`[
		{"country": "Aruba", "year": "2000", "meaning": "Forest area (% of land area)", "value": 2.33},
		{"country": {"id": "FR", "value": "France"}, "year": 2001, "meaning": "m", "value": "1.5"},
		{"country": "Chad", "year": "2002", "meaning": "m", "value": null},
		{"country": "Chad", "year": "2003", "meaning": "m", "value": "n/a"},
		42,
		"junk",
		{"country": "Chad", "year": "2004", "meaning": "m"}
	]`)

	records, dropped, err := DecodeIndicators(data)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	require.Len(t, records, 5)

	assert.Equal(t, "Aruba", records[0].Country)
	assert.Equal(t, "2000", records[0].Year)
	require.NotNil(t, records[0].Value)
	assert.Equal(t, 2.33, *records[0].Value)

	assert.Equal(t, "France", records[1].Country)
	assert.Equal(t, "2001", records[1].Year)
	require.NotNil(t, records[1].Value)
	assert.Equal(t, 1.5, *records[1].Value)

	assert.Nil(t, records[2].Value)
	assert.Nil(t, records[3].Value)
	assert.Nil(t, records[4].Value)
}

func TestDecodeIndicatorsRejectsNonArray(t *testing.T) {
	for _, in := range []string{`{}`, `null`, ``, `[1,2`, `"x"`} {
		_, _, err := DecodeIndicators([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestDecodeGlobal(t *testing.T) {
	data := []byte(`{
		"global-temperature": {"1880": -0.17, "1881": "-0.08", "1882": null},
		"broken": [1, 2, 3],
		"methane": {}
	}`)

	feed, err := DecodeGlobal(data)
	require.NoError(t, err)
	assert.Len(t, feed, 2)

	temp := feed["global-temperature"]
	require.Len(t, temp, 3)
	assert.Equal(t, -0.17, *temp["1880"])
	assert.Equal(t, -0.08, *temp["1881"])
	assert.Nil(t, temp["1882"])
	assert.Empty(t, feed["methane"])
}

func TestDecodeGlobalRejectsNonObject(t *testing.T) {
	for _, in := range []string{`[]`, `null`, `{"a":`, ``} {
		_, err := DecodeGlobal([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestDecodeCountriesShapes(t *testing.T) {
	records := `[
		{"id": "FRA", "iso2Code": "FR", "name": "France",
		 "region": {"id": "ECS", "value": "Europe & Central Asia"},
		 "capitalCity": "Paris", "latitude": "48.8566", "longitude": "2.35097"},
		{"id": "XXX", "name": "Nowhere", "latitude": "", "longitude": ""},
		"junk"
	]`

	shapes := map[string]string{
		"nested":   `[` + records + `]`,
		"envelope": `[{"page": 1, "pages": 1, "total": 3}, ` + records + `]`,
		"bare":     records,
	}
	for name, in := range shapes {
		t.Run(name, func(t *testing.T) {
			out, err := DecodeCountries([]byte(in))
			require.NoError(t, err)
			require.Len(t, out, 2)

			fr := out[0]
			assert.Equal(t, "France", fr.Name)
			assert.Equal(t, "FRA", fr.ID)
			assert.Equal(t, "FR", fr.ISO2Code)
			assert.Equal(t, "Europe & Central Asia", fr.Region)
			assert.Equal(t, "Paris", fr.Capital)
			assert.Equal(t, "48.8566", fr.Latitude)
			assert.Equal(t, "2.35097", fr.Longitude)

			assert.Equal(t, "", out[1].Latitude)
		})
	}
}

func TestDecodeCountriesRejectsNonArray(t *testing.T) {
	_, err := DecodeCountries([]byte(`{"name": "France"}`))
	assert.Error(t, err)
}

func TestNamed(t *testing.T) {
	assert.Equal(t, "x", named([]byte(`"x"`)))
	assert.Equal(t, "v", named([]byte(`{"id": "1", "value": "v"}`)))
	assert.Equal(t, "n", named([]byte(`{"name": "n"}`)))
	assert.Equal(t, "", named([]byte(`null`)))
	assert.Equal(t, "12", named([]byte(`12`)))
}
