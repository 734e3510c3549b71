package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
	"github.com/i474232898/climate-data-aggregation/internal/logging"
)

type countingReloader struct {
	calls atomic.Int32
	err   error
}

func (r *countingReloader) Reload(ctx context.Context) (*climate.Dataset, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return climate.NewDataset(climate.DatasetInput{}), nil
}

type recordingCollector struct {
	mu    sync.Mutex
	order *[]string
	err   error
}

func (c *recordingCollector) Run(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.order = append(*c.order, "collect")
	return c.err
}

type orderedReloader struct {
	order *[]string
}

func (r orderedReloader) Reload(ctx context.Context) (*climate.Dataset, error) {
	*r.order = append(*r.order, "reload")
	return nil, nil
}

func TestStartWithoutJobs(t *testing.T) {
	r := &countingReloader{}
	s := New(logging.Discard(), r, nil, 0, time.Minute)
	require.NoError(t, s.Start())
	s.Stop()
	assert.Zero(t, r.calls.Load())
}

func TestReloadJobRunsPeriodically(t *testing.T) {
	r := &countingReloader{}
	s := New(logging.Discard(), r, nil, 20*time.Millisecond, 0)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestCollectRunsBeforeReloadEvenOnError(t *testing.T) {
	var order []string
	c := &recordingCollector{order: &order, err: errors.New("partial")}
	s := New(logging.Discard(), orderedReloader{order: &order}, c, 0, time.Hour)

	s.collectAndReload()
	assert.Equal(t, []string{"collect", "reload"}, order)
}

func TestReloadFailureIsLogged(t *testing.T) {
	r := &countingReloader{err: errors.New("bad file")}
	s := New(logging.Discard(), r, nil, time.Hour, 0)

	s.reload()
	assert.Equal(t, int32(1), r.calls.Load())
}
