package climate

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

func f(v float64) *float64 { return &v }

func rec(country, year, metric string, value *float64) MetricRecord {
	return MetricRecord{Country: country, Year: year, Meaning: LabelOf(metric), Value: value}
}

// sampleInput is a small dataset covering every query.
func sampleInput() DatasetInput {
	return DatasetInput{
		Global: GlobalFeed{
			"global-temperature": {"1881": f(-0.081), "1880": f(-0.167), "1882": f(-0.104)},
			"carbon-dioxide":     {"2001": f(371.3), "2000": f(369.6)},
			"unknown-indicator":  {"2000": f(1)},
		},
		Records: []MetricRecord{
			rec("A", "2000", "co2", f(10)),
			rec("A", "2001", "co2", f(20)),
			rec("B", "2000", "co2", f(5)),
			rec("A", "2000", "forest", f(33.5)),
			rec("C", "2000", "forest", f(60)),
			rec("B", "2001", "co2", nil),
		},
		Countries: []CountryRecord{
			{Name: "A", ID: "AAA", ISO2Code: "AA", Region: "Europe", Capital: "Alpha", Latitude: "48.85", Longitude: "2.35"},
			{Name: "B", ID: "BBB", ISO2Code: "BB", Latitude: "-33.86", Longitude: "151.2"},
			{Name: "C", ID: "CCC", ISO2Code: "CC", Latitude: "", Longitude: "10"},
		},
	}
}

type staticLoader struct {
	in    DatasetInput
	err   error
	calls atomic.Int32
}

func (l *staticLoader) Load(ctx context.Context) (DatasetInput, error) {
	l.calls.Add(1)
	if l.err != nil {
		return DatasetInput{}, l.err
	}
	return l.in, nil
}

type pointerStore struct {
	current atomic.Pointer[Dataset]
}

func (s *pointerStore) Current() *Dataset        { return s.current.Load() }
func (s *pointerStore) Swap(d *Dataset) *Dataset { return s.current.Swap(d) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
