// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - DocumentFinder: Discovers candidate PDFs under the input root
//   - Extractor: Produces per-page raw text plus page count from a PDF
//   - Normaliser: Runs the ordered cleaning pipeline over page text
//   - PostProcessor: Chunks normalised text and attaches metadata
//   - ArtifactStore: Persists per-document artifacts and the run summary
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - CatalogStore: SQLite chunk catalog for downstream loaders
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
