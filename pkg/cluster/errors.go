package cluster

import "errors"

var (
	// ErrInvalidRange reports an unusable resolution sweep configuration
	// (min >= max, non-positive step count). Raised before any clustering
	// run starts.
	ErrInvalidRange = errors.New("invalid resolution range")

	// ErrClusteringFailed reports a failed clustering run: an unknown
	// algorithm, a primitive that did not converge, or an incomplete
	// partition.
	ErrClusteringFailed = errors.New("clustering failed")

	// ErrSweepTimeout reports that the sweep exceeded its wall-clock
	// budget. Partial results are discarded.
	ErrSweepTimeout = errors.New("resolution sweep timed out")
)
