package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

const jobTimeout = 10 * time.Minute

// Reloader rebuilds the served dataset.
type Reloader interface {
	Reload(ctx context.Context) (*climate.Dataset, error)
}

// Collector refreshes the feed files from upstream.
type Collector interface {
	Run(ctx context.Context) error
}

// Scheduler periodically reloads the dataset and, optionally, refreshes the
// feed files before reloading.
type Scheduler struct {
	log       *slog.Logger
	scheduler *gocron.Scheduler
	reloader  Reloader
	collector Collector

	reloadInterval  time.Duration
	collectInterval time.Duration
}

// New creates a new Scheduler. A zero interval disables that job; collector
// may be nil when collectInterval is zero.
func New(log *slog.Logger, reloader Reloader, collector Collector, reloadInterval, collectInterval time.Duration) *Scheduler {
	return &Scheduler{
		log:             log,
		scheduler:       gocron.NewScheduler(time.UTC),
		reloader:        reloader,
		collector:       collector,
		reloadInterval:  reloadInterval,
		collectInterval: collectInterval,
	}
}

// Start schedules the configured jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	jobs := 0

	if s.reloadInterval > 0 {
		if _, err := s.scheduler.Every(s.reloadInterval).WaitForSchedule().SingletonMode().Do(s.reload); err != nil {
			return err
		}
		jobs++
	}

	if s.collectInterval > 0 && s.collector != nil {
		if _, err := s.scheduler.Every(s.collectInterval).WaitForSchedule().SingletonMode().Do(s.collectAndReload); err != nil {
			return err
		}
		jobs++
	}

	if jobs == 0 {
		s.log.Info("scheduler: no periodic jobs configured")
		return nil
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "jobs", jobs, "reloadInterval", s.reloadInterval, "collectInterval", s.collectInterval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) reload() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	s.log.Debug("scheduler: running reload job")
	if _, err := s.reloader.Reload(ctx); err != nil {
		s.log.Error("scheduler: reload failed; keeping current dataset", "error", err)
	}
}

func (s *Scheduler) collectAndReload() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	s.log.Info("scheduler: running collect job")
	if err := s.collector.Run(ctx); err != nil {
		// Partial success still rewrote some files, so reload anyway.
		s.log.Warn("scheduler: collect finished with errors", "error", err)
	}
	if _, err := s.reloader.Reload(ctx); err != nil {
		s.log.Error("scheduler: reload after collect failed; keeping current dataset", "error", err)
	}
}
