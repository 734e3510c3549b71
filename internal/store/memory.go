package store

import (
	"sync/atomic"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

// MemoryStore holds the dataset currently served. Datasets are immutable, so
// publishing one is a single pointer swap and readers never lock.
type MemoryStore struct {
	current atomic.Pointer[climate.Dataset]
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Current returns the published dataset, or nil before the first Swap.
func (s *MemoryStore) Current() *climate.Dataset {
	return s.current.Load()
}

// Swap publishes d and returns the dataset it replaced.
func (s *MemoryStore) Swap(d *climate.Dataset) *climate.Dataset {
	return s.current.Swap(d)
}
