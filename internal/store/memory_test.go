package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

func TestMemoryStoreSwap(t *testing.T) {
	s := NewMemoryStore()
	assert.Nil(t, s.Current())

	first := climate.NewDataset(climate.DatasetInput{})
	assert.Nil(t, s.Swap(first))
	assert.Same(t, first, s.Current())

	second := climate.NewDataset(climate.DatasetInput{})
	assert.Same(t, first, s.Swap(second))
	assert.Same(t, second, s.Current())
	assert.NotEqual(t, first.ID, second.ID)
}
