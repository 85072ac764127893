package domain

import (
	"fmt"
	"time"
)

// Default pipeline settings. All of these are overridable through
// configuration.
const (
	// DefaultChunkSize is the target chunk size in bytes.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the overlap between consecutive chunks.
	DefaultChunkOverlap = 200

	// DefaultBoundaryWindow is the fraction of the window span, measured
	// back from the naive cut point, searched for a natural boundary.
	DefaultBoundaryWindow = 0.20

	// DefaultHeaderThreshold is the fraction of pages on which a line
	// must recur to be treated as repeated header/footer boilerplate.
	DefaultHeaderThreshold = 0.5

	// DefaultWorkers is the number of documents processed concurrently.
	DefaultWorkers = 4

	// DefaultDocumentTimeout bounds extraction and processing of a
	// single document so a hung PDF cannot stall the batch.
	DefaultDocumentTimeout = 5 * time.Minute
)

// IngestSettings holds the full ingestion pipeline configuration.
// It is an explicit value passed into the orchestrator at construction;
// there is no implicit global state.
type IngestSettings struct {
	// InputRoot is the directory scanned recursively for PDFs.
	InputRoot string

	// OutputRoot is where per-document artifacts and the run summary
	// are written, mirroring the input tree.
	OutputRoot string

	// ChunkSize is the target chunk size S in bytes.
	ChunkSize int

	// ChunkOverlap is the overlap O between consecutive chunks,
	// 0 <= O < S.
	ChunkOverlap int

	// BoundaryWindow is the back-search fraction for boundary snapping,
	// in (0, 1].
	BoundaryWindow float64

	// HeaderThreshold is the page-frequency threshold for repeated
	// header/footer removal, in (0, 1].
	HeaderThreshold float64

	// Workers is the document worker pool size.
	Workers int

	// DocumentTimeout bounds the processing of one document.
	DocumentTimeout time.Duration

	// CatalogPath, when non-empty, enables the SQLite chunk catalog at
	// the given path.
	CatalogPath string
}

// DefaultIngestSettings returns settings with all defaults applied.
// Input and output roots have no defaults and must be configured.
func DefaultIngestSettings() IngestSettings {
	return IngestSettings{
		ChunkSize:       DefaultChunkSize,
		ChunkOverlap:    DefaultChunkOverlap,
		BoundaryWindow:  DefaultBoundaryWindow,
		HeaderThreshold: DefaultHeaderThreshold,
		Workers:         DefaultWorkers,
		DocumentTimeout: DefaultDocumentTimeout,
	}
}

// Validate checks the settings. Violations are configuration errors and
// abort the run before any document is processed.
func (s IngestSettings) Validate() error {
	if s.InputRoot == "" {
		return fmt.Errorf("%w: input root is required", ErrInvalidConfig)
	}
	if s.OutputRoot == "" {
		return fmt.Errorf("%w: output root is required", ErrInvalidConfig)
	}
	if s.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, s.ChunkSize)
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize {
		return fmt.Errorf("%w: overlap must satisfy 0 <= overlap < chunk size, got overlap %d size %d",
			ErrInvalidConfig, s.ChunkOverlap, s.ChunkSize)
	}
	if s.BoundaryWindow <= 0 || s.BoundaryWindow > 1 {
		return fmt.Errorf("%w: boundary window must be in (0, 1], got %g", ErrInvalidConfig, s.BoundaryWindow)
	}
	if s.HeaderThreshold <= 0 || s.HeaderThreshold > 1 {
		return fmt.Errorf("%w: header threshold must be in (0, 1], got %g", ErrInvalidConfig, s.HeaderThreshold)
	}
	if s.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, s.Workers)
	}
	if s.DocumentTimeout <= 0 {
		return fmt.Errorf("%w: document timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
