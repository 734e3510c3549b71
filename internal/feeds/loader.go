package feeds

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

// Feed names used in errors and logs.
const (
	FeedGlobal     = "global"
	FeedIndicators = "indicators"
	FeedCountries  = "countries"
)

// FileLoader reads the three feeds from local JSON files.
type FileLoader struct {
	log *slog.Logger

	GlobalPath     string
	IndicatorsPath string
	CountriesPath  string
}

// NewFileLoader creates a FileLoader for the given paths.
func NewFileLoader(log *slog.Logger, globalPath, indicatorsPath, countriesPath string) (*FileLoader, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return &FileLoader{
		log:            log,
		GlobalPath:     globalPath,
		IndicatorsPath: indicatorsPath,
		CountriesPath:  countriesPath,
	}, nil
}

// Load implements climate.Loader. Any unreadable or malformed file aborts the
// load with a *climate.LoadError.
func (l *FileLoader) Load(ctx context.Context) (climate.DatasetInput, error) {
	var in climate.DatasetInput

	data, err := l.read(ctx, FeedGlobal, l.GlobalPath)
	if err != nil {
		return in, err
	}
	if in.Global, err = DecodeGlobal(data); err != nil {
		return in, &climate.LoadError{Feed: FeedGlobal, Path: l.GlobalPath, Err: err}
	}

	data, err = l.read(ctx, FeedIndicators, l.IndicatorsPath)
	if err != nil {
		return in, err
	}
	var dropped int
	if in.Records, dropped, err = DecodeIndicators(data); err != nil {
		return in, &climate.LoadError{Feed: FeedIndicators, Path: l.IndicatorsPath, Err: err}
	}
	if dropped > 0 {
		l.log.Warn("dropped malformed indicator elements", "path", l.IndicatorsPath, "count", dropped)
	}

	data, err = l.read(ctx, FeedCountries, l.CountriesPath)
	if err != nil {
		return in, err
	}
	if in.Countries, err = DecodeCountries(data); err != nil {
		return in, &climate.LoadError{Feed: FeedCountries, Path: l.CountriesPath, Err: err}
	}

	l.log.Debug("feeds decoded",
		"globalIndicators", len(in.Global),
		"indicatorRecords", len(in.Records),
		"countryRecords", len(in.Countries))
	return in, nil
}

func (l *FileLoader) read(ctx context.Context, feed, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &climate.LoadError{Feed: feed, Path: path, Err: err}
	}
	return data, nil
}
