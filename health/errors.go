package health

import "errors"

var (
	// ErrThresholdExceeded is attached to results that crossed an
	// unhealthy threshold.
	ErrThresholdExceeded = errors.New("health: threshold exceeded")

	// ErrCheckTimeout is attached to checks that did not finish before the
	// aggregator deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned for unknown checker names.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
