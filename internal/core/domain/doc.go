// Package domain defines the core business entities for FinSight.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source report and its derived normalised text
//   - Chunk: A bounded, overlapping span of normalised text
//   - IngestionRun: The aggregate record of one ingestion invocation
//   - IngestSettings: Pipeline configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
