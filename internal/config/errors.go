package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrNoTarget is returned when no store URL is given.
	ErrNoTarget = errors.New("no target specified: provide at least one store URL")

	// ErrInvalidPageSize is returned when the page size is not positive.
	ErrInvalidPageSize = errors.New("invalid page size: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRequestRate is returned when the request rate is negative.
	ErrInvalidRequestRate = errors.New("invalid request rate: must be non-negative")

	// ErrInvalidClusterCount is returned for a negative count or a count of one.
	ErrInvalidClusterCount = errors.New("invalid cluster count: use 0 for automatic or a value of at least 2")

	// ErrInvalidClusterRestarts is returned when restarts is not positive.
	ErrInvalidClusterRestarts = errors.New("invalid cluster restarts: must be positive")

	// ErrInvalidMaxFeatures is returned when the vocabulary cap is not positive.
	ErrInvalidMaxFeatures = errors.New("invalid max features: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrUnknownSource is returned when a skipped source name is not recognized.
	ErrUnknownSource = errors.New("unknown source: must be one of clustering, collections, sitemap, tech_stack")
)
