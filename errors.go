package casearch

import "errors"

var (
	// ErrFileNotFound is returned when a file ID does not exist.
	ErrFileNotFound = errors.New("casearch: file not found")

	// ErrExtractionFailed is returned when PDF extraction fails.
	ErrExtractionFailed = errors.New("casearch: extraction failed")

	// ErrIndexCorrupt is returned when the FTS index disagrees with the
	// relational content and an admin rebuild is required.
	ErrIndexCorrupt = errors.New("casearch: index corrupt, rebuild required")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("casearch: invalid configuration")
)
