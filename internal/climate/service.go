package climate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	defaultTopCacheTTL      = 5 * time.Minute
	defaultTopCacheCapacity = 1024
	defaultMaxForecastYears = 50
	defaultPolynomialDegree = 2
)

// LoadHook is notified after every load attempt.
type LoadHook func(d *Dataset, took time.Duration, err error)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Logger           *slog.Logger
	Model            Model
	TopCacheTTL      time.Duration
	MaxForecastYears int
	OnLoad           LoadHook
}

// Validate fills defaults and checks required fields.
func (c *ServiceConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Model == nil {
		c.Model = PolynomialModel{Degree: defaultPolynomialDegree}
	}
	if c.TopCacheTTL <= 0 {
		c.TopCacheTTL = defaultTopCacheTTL
	}
	if c.MaxForecastYears <= 0 {
		c.MaxForecastYears = defaultMaxForecastYears
	}
	return nil
}

// Service loads datasets into a store and answers queries against the
// dataset current at call time.
type Service struct {
	log    *slog.Logger
	cfg    ServiceConfig
	store  Store
	loader Loader

	// reloadMu serializes loads; readers never take it.
	reloadMu sync.Mutex
	topCache *ttlcache.Cache[string, []RankedCountry]
}

// NewService creates a new Service.
func NewService(store Store, loader Loader, cfg ServiceConfig) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if loader == nil {
		return nil, errors.New("loader is required")
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, []RankedCountry](cfg.TopCacheTTL),
		ttlcache.WithCapacity[string, []RankedCountry](defaultTopCacheCapacity),
	)

	return &Service{
		log:      cfg.Logger,
		cfg:      cfg,
		store:    store,
		loader:   loader,
		topCache: cache,
	}, nil
}

// Reload reads every feed, builds a new dataset and publishes it. On failure
// the previously published dataset stays in place.
func (s *Service) Reload(ctx context.Context) (*Dataset, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	in, err := s.loader.Load(ctx)
	if err != nil {
		s.notify(nil, time.Since(start), err)
		return nil, err
	}

	ds := NewDataset(in)
	prev := s.store.Swap(ds)
	s.topCache.DeleteAll()

	took := time.Since(start)
	s.log.Info("dataset loaded",
		"id", ds.ID,
		"countries", len(ds.countries),
		"metadata", ds.metadata.Len(),
		"globalSeries", len(ds.global),
		"indexed", ds.Stats.Indexed,
		"skipped", ds.Stats.Skipped,
		"took", took)
	if prev != nil {
		s.log.Debug("replaced dataset", "previous", prev.ID)
	}
	s.notify(ds, took, nil)
	return ds, nil
}

func (s *Service) notify(ds *Dataset, took time.Duration, err error) {
	if s.cfg.OnLoad != nil {
		s.cfg.OnLoad(ds, took, err)
	}
}

// Dataset returns the dataset currently served.
func (s *Service) Dataset() (*Dataset, error) {
	ds := s.store.Current()
	if ds == nil {
		return nil, ErrNoDataset
	}
	return ds, nil
}

// Catalog lists the metrics a client can ask for.
type Catalog struct {
	Metrics []MetricInfo `json:"metrics"`
	Global  []GlobalInfo `json:"global"`
	Default string       `json:"default"`
}

// ListMetrics returns the metric catalog. It does not need a dataset.
func (s *Service) ListMetrics() Catalog {
	return Catalog{
		Metrics: Metrics(),
		Global:  GlobalMetrics(),
		Default: DefaultMetric,
	}
}

// GlobalSeries returns a global indicator series; unknown keys yield an empty
// series.
func (s *Service) GlobalSeries(metric string) (Series, error) {
	ds, err := s.Dataset()
	if err != nil {
		return Series{}, err
	}
	return ds.GlobalSeries(metric), nil
}

// CountryNames returns every country of the indicator indices.
func (s *Service) CountryNames() ([]string, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.CountryNames(), nil
}

// CountrySeries delegates to Dataset.CountrySeries.
func (s *Service) CountrySeries(country, metric string) (Series, error) {
	ds, err := s.Dataset()
	if err != nil {
		return Series{}, err
	}
	return ds.CountrySeries(country, metric)
}

// CountryAllSeries delegates to Dataset.CountryAllSeries.
func (s *Service) CountryAllSeries(country string) (map[string]Series, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.CountryAllSeries(country)
}

// MetricSeries delegates to Dataset.MetricSeries.
func (s *Service) MetricSeries(metric, country string) (Series, error) {
	ds, err := s.Dataset()
	if err != nil {
		return Series{}, err
	}
	return ds.MetricSeries(metric, country)
}

// MetricAllSeries delegates to Dataset.MetricAllSeries.
func (s *Service) MetricAllSeries(metric string) (map[string]Series, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.MetricAllSeries(metric)
}

// TopCountries returns the ranking for a metric, cached per dataset.
func (s *Service) TopCountries(metric string, limit int, ascending bool) ([]RankedCountry, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%s|%d|%t", ds.ID, resolveMetric(metric), limit, ascending)
	if item := s.topCache.Get(key); item != nil {
		return append([]RankedCountry{}, item.Value()...), nil
	}

	ranked := ds.TopCountries(metric, limit, ascending)
	s.topCache.Set(key, ranked, ttlcache.DefaultTTL)
	return append([]RankedCountry{}, ranked...), nil
}

// CountryMetadata resolves a country by name or ISO code.
func (s *Service) CountryMetadata(query string) (CountryMetadata, error) {
	ds, err := s.Dataset()
	if err != nil {
		return CountryMetadata{}, err
	}
	md, ok := ds.Metadata().Lookup(query)
	if !ok {
		return CountryMetadata{}, notFoundf("country metadata %q", query)
	}
	return md, nil
}

// AllCountryMetadata returns every metadata entry keyed by name.
func (s *Service) AllCountryMetadata() (map[string]CountryMetadata, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.Metadata().All(), nil
}

// NearestCountry returns the country closest to a coordinate.
func (s *Service) NearestCountry(lat, lon float64) (NearestCountry, error) {
	ds, err := s.Dataset()
	if err != nil {
		return NearestCountry{}, err
	}
	n, ok := ds.Metadata().Nearest(lat, lon)
	if !ok {
		return NearestCountry{}, notFoundf("no country near %.4f,%.4f", lat, lon)
	}
	return n, nil
}

// YearSnapshot delegates to Dataset.YearSnapshot.
func (s *Service) YearSnapshot(year int) ([]CountryYear, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.YearSnapshot(year), nil
}

// AvailableYears delegates to Dataset.AvailableYears.
func (s *Service) AvailableYears(metric string) ([]int, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.AvailableYears(metric), nil
}

// Forecast predicts nYears values for every global indicator.
func (s *Service) Forecast(nYears int) (map[string][]float64, error) {
	if nYears <= 0 || nYears > s.cfg.MaxForecastYears {
		return nil, invalidf("years must be between 1 and %d", s.cfg.MaxForecastYears)
	}
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return Forecast(ds.GlobalSeriesSet(), s.cfg.Model, nYears)
}
