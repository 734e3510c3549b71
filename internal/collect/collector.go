package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// Collector fetches one feed from upstream and returns the document to be
// written as JSON.
type Collector interface {
	Feed() string
	Collect(ctx context.Context) (any, error)
}

// Target binds a collector to the file it writes.
type Target struct {
	Collector Collector
	Path      string
}

// Runner runs collectors concurrently and writes their files.
type Runner struct {
	log      *slog.Logger
	targets  []Target
	observer func(feed string, err error)
}

// NewRunner creates a Runner. observer may be nil.
func NewRunner(log *slog.Logger, targets []Target, observer func(feed string, err error)) *Runner {
	return &Runner{log: log, targets: targets, observer: observer}
}

// Run collects every target. A failing collector leaves its previous file in
// place; the returned error joins every failure.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.targets) == 0 {
		return fmt.Errorf("no collectors configured")
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, t := range r.targets {
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			err := r.runOne(ctx, t)
			if r.observer != nil {
				r.observer(t.Collector.Feed(), err)
			}
			if err != nil {
				// Log and continue; other feeds may still succeed.
				r.log.Error("collect failed", "feed", t.Collector.Feed(), "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", t.Collector.Feed(), err))
				mu.Unlock()
				return
			}
			r.log.Info("collected feed", "feed", t.Collector.Feed(), "path", t.Path, "took", time.Since(start))
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (r *Runner) runOne(ctx context.Context, t Target) error {
	doc, err := t.Collector.Collect(ctx)
	if err != nil {
		return err
	}
	return writeJSONAtomic(t.Path, doc)
}

// writeJSONAtomic writes v to path through a temporary file in the same
// directory so readers never see a partial file.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Paths names the files the three feeds are written to.
type Paths struct {
	Global     string
	Indicators string
	Countries  string
}

// Endpoints overrides upstream base URLs; empty fields select the public
// services.
type Endpoints struct {
	WorldBank  string
	VitalSigns string
}

// DefaultTargets returns the collectors for all three feeds.
func DefaultTargets(log *slog.Logger, cfg HTTPClientConfig, paths Paths, endpoints Endpoints) []Target {
	wb := NewWorldBankClient(cfg, endpoints.WorldBank)
	return []Target{
		{Collector: NewVitalSigns(log, cfg, endpoints.VitalSigns), Path: paths.Global},
		{Collector: NewWorldBankIndicators(wb), Path: paths.Indicators},
		{Collector: NewWorldBankCountries(wb), Path: paths.Countries},
	}
}

// FilterTargets keeps the targets whose feed is listed in only. An empty list
// keeps everything; unknown names are an error.
func FilterTargets(targets []Target, only []string) ([]Target, error) {
	if len(only) == 0 {
		return targets, nil
	}
	byFeed := make(map[string]Target, len(targets))
	for _, t := range targets {
		byFeed[t.Collector.Feed()] = t
	}
	out := make([]Target, 0, len(only))
	for _, name := range only {
		t, ok := byFeed[name]
		if !ok {
			return nil, fmt.Errorf("unknown feed %q", name)
		}
		out = append(out, t)
	}
	return out, nil
}
