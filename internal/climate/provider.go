package climate

import (
	"context"
)

// Loader reads and decodes the three feeds a Dataset is built from.
// Implementations return a *LoadError when a feed is missing or unparsable.
type Loader interface {
	Load(ctx context.Context) (DatasetInput, error)
}

// Store is the contract the in-memory dataset holder must satisfy. Current
// never observes a partially built dataset.
type Store interface {
	Current() *Dataset
	Swap(d *Dataset) (previous *Dataset)
}
