package loader

import "errors"

var (
	// ErrNilCache is returned by New when no cache is supplied.
	ErrNilCache = errors.New("loader: cache is nil")

	// ErrNilFetch is returned by New when no fetch function is supplied.
	ErrNilFetch = errors.New("loader: fetch function is nil")

	// ErrFetchPanic is returned when the fetch function panics.
	ErrFetchPanic = errors.New("loader: fetch panicked")
)
