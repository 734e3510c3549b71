package climate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, loader Loader) (*Service, *pointerStore) {
	t.Helper()
	st := &pointerStore{}
	svc, err := NewService(st, loader, ServiceConfig{Logger: discardLogger(), MaxForecastYears: 10})
	require.NoError(t, err)
	return svc, st
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(&pointerStore{}, &staticLoader{}, ServiceConfig{})
	assert.Error(t, err)

	_, err = NewService(nil, &staticLoader{}, ServiceConfig{Logger: discardLogger()})
	assert.Error(t, err)

	_, err = NewService(&pointerStore{}, nil, ServiceConfig{Logger: discardLogger()})
	assert.Error(t, err)

	cfg := ServiceConfig{Logger: discardLogger()}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, PolynomialModel{Degree: 2}, cfg.Model)
	assert.Equal(t, 5*time.Minute, cfg.TopCacheTTL)
	assert.Equal(t, 50, cfg.MaxForecastYears)
}

func TestServiceWithoutDataset(t *testing.T) {
	svc, _ := newTestService(t, &staticLoader{in: sampleInput()})

	_, err := svc.Dataset()
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = svc.GlobalSeries("co2")
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = svc.TopCountries("co2", 3, false)
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = svc.Forecast(3)
	assert.ErrorIs(t, err, ErrNoDataset)

	assert.Equal(t, "co2", svc.ListMetrics().Default)
	assert.Len(t, svc.ListMetrics().Metrics, 4)
}

func TestServiceReload(t *testing.T) {
	var hooked []error
	loader := &staticLoader{in: sampleInput()}
	st := &pointerStore{}
	svc, err := NewService(st, loader, ServiceConfig{
		Logger: discardLogger(),
		OnLoad: func(d *Dataset, took time.Duration, err error) { hooked = append(hooked, err) },
	})
	require.NoError(t, err)

	ds, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, ds, st.Current())
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, []error{nil}, hooked)

	top, err := svc.TopCountries("co2", 3, false)
	require.NoError(t, err)
	assert.Equal(t, "A", top[0].Country)
}

func TestServiceFailedReloadKeepsDataset(t *testing.T) {
	loader := &staticLoader{in: sampleInput()}
	svc, st := newTestService(t, loader)

	first, err := svc.Reload(context.Background())
	require.NoError(t, err)

	loader.err = &LoadError{Feed: "global", Path: "nasa_data.json", Err: errors.New("unexpected end of JSON input")}
	_, err = svc.Reload(context.Background())
	require.Error(t, err)

	var le *LoadError
	assert.ErrorAs(t, err, &le)
	assert.Same(t, first, st.Current())

	s, err := svc.CountrySeries("A", "co2")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, s.Values)
}

func TestServiceTopCacheInvalidatedOnReload(t *testing.T) {
	loader := &staticLoader{in: sampleInput()}
	svc, _ := newTestService(t, loader)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	top, err := svc.TopCountries("co2", 10, false)
	require.NoError(t, err)
	require.Len(t, top, 2)

	// Mutating the returned slice must not leak into the cache.
	top[0].Country = "mutated"
	again, err := svc.TopCountries("co2", 10, false)
	require.NoError(t, err)
	assert.Equal(t, "A", again[0].Country)

	in := sampleInput()
	in.Records = append(in.Records, rec("D", "2000", "co2", f(100)))
	loader.in = in
	_, err = svc.Reload(context.Background())
	require.NoError(t, err)

	top, err = svc.TopCountries("co2", 10, false)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "D", top[0].Country)
}

func TestServiceMetadataQueries(t *testing.T) {
	svc, _ := newTestService(t, &staticLoader{in: sampleInput()})
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	md, err := svc.CountryMetadata("bb")
	require.NoError(t, err)
	assert.Equal(t, "B", md.Name)

	_, err = svc.CountryMetadata("Nowhereland")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := svc.AllCountryMetadata()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := svc.NearestCountry(-30, 150)
	require.NoError(t, err)
	assert.Equal(t, "B", n.Country.Name)

	snap, err := svc.YearSnapshot(2001)
	require.NoError(t, err)
	assert.Len(t, snap, 1)

	years, err := svc.AvailableYears("co2")
	require.NoError(t, err)
	assert.Equal(t, []int{2000, 2001}, years)
}

func TestServiceForecastBounds(t *testing.T) {
	svc, _ := newTestService(t, &staticLoader{in: sampleInput()})
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	for _, n := range []int{0, -1, 11} {
		_, err := svc.Forecast(n)
		assert.ErrorIs(t, err, ErrInvalidInput, n)
	}

	out, err := svc.Forecast(5)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Len(t, out["temperature"], 5)
	assert.InDelta(t, -0.1, out["temperature"][0], 1e-9)
	assert.InDelta(t, 371.3, out["co2"][0], 1e-9)
}

func TestServiceConcurrentReadsDuringReload(t *testing.T) {
	svc, _ := newTestService(t, &staticLoader{in: sampleInput()})
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.Reload(context.Background())
		}()
		go func() {
			defer wg.Done()
			a, err := svc.CountrySeries("A", "co2")
			assert.NoError(t, err)
			b, err := svc.MetricSeries("co2", "A")
			assert.NoError(t, err)
			assert.Equal(t, a, b)
		}()
	}
	wg.Wait()
}
