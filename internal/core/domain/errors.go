package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the pipeline configuration is invalid
	// (bad chunk size/overlap relationship, missing input root). Fatal:
	// the run aborts before any document is processed, since it would
	// invalidate all output uniformly.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrExtraction indicates a source PDF is unreadable, encrypted or
	// not a valid PDF. The document is marked failed; the run continues.
	ErrExtraction = errors.New("extraction failed")

	// ErrStageFailed indicates a cleaning stage failed on malformed
	// input. The stage is skipped for that document and the failure is
	// recorded as a warning; never fatal.
	ErrStageFailed = errors.New("cleaning stage failed")
)
