package climate

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a known kind of entity has no data, e.g. a
	// country without values for the requested metric.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for structurally malformed requests.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoDataset is returned by the service before the first load completes.
	ErrNoDataset = errors.New("dataset not loaded")
)

// LoadError reports a feed that could not be read or parsed at all.
type LoadError struct {
	Feed string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s feed %q: %v", e.Feed, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
