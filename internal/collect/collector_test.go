package collect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCollector struct {
	feed string
	doc  any
	err  error
}

func (s stubCollector) Feed() string { return s.feed }

func (s stubCollector) Collect(context.Context) (any, error) { return s.doc, s.err }

func TestRunnerWritesFiles(t *testing.T) {
	dir := t.TempDir()
	okPath := filepath.Join(dir, "nested", "global.json")
	failPath := filepath.Join(dir, "indicators.json")
	require.NoError(t, os.WriteFile(failPath, []byte(`["previous"]`), 0o644))

	var (
		mu       sync.Mutex
		observed = map[string]error{}
	)
	observer := func(feed string, err error) {
		mu.Lock()
		defer mu.Unlock()
		observed[feed] = err
	}

	boom := errors.New("upstream down")
	r := NewRunner(discard(), []Target{
		{Collector: stubCollector{feed: "global", doc: map[string]map[string]float64{"methane": {"2000": 1.5}}}, Path: okPath},
		{Collector: stubCollector{feed: "indicators", err: boom}, Path: failPath},
	}, observer)

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	data, err := os.ReadFile(okPath)
	require.NoError(t, err)
	var got map[string]map[string]float64
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 1.5, got["methane"]["2000"])

	prev, err := os.ReadFile(failPath)
	require.NoError(t, err)
	assert.Equal(t, `["previous"]`, string(prev))

	assert.NoError(t, observed["global"])
	assert.ErrorIs(t, observed["indicators"], boom)

	entries, err := os.ReadDir(filepath.Dir(okPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestRunnerWithoutTargets(t *testing.T) {
	assert.Error(t, NewRunner(discard(), nil, nil).Run(context.Background()))
}

func TestFilterTargets(t *testing.T) {
	targets := DefaultTargets(discard(), DefaultHTTPConfig(nil), Paths{Global: "g", Indicators: "i", Countries: "c"}, Endpoints{})
	require.Len(t, targets, 3)

	all, err := FilterTargets(targets, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := FilterTargets(targets, []string{"countries", "global"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "c", some[0].Path)
	assert.Equal(t, "g", some[1].Path)

	_, err = FilterTargets(targets, []string{"weather"})
	assert.Error(t, err)
}
