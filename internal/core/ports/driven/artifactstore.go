package driven

import (
	"context"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
)

// ArtifactStore persists pipeline output to the output root.
// Writes must be atomic (write to a temporary location, then rename) so
// an interrupted run never leaves a partially written artifact
// observable, and idempotent: rewriting an unchanged document produces
// byte-identical files, overwritten in place.
type ArtifactStore interface {
	// WriteDocument persists the normalised text artifact and the chunk
	// list artifact for one document, mirroring its location under the
	// output root.
	WriteDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// WriteSummary persists the aggregate run summary.
	WriteSummary(ctx context.Context, run *domain.IngestionRun) error
}

// CatalogStore records documents, chunks and runs in a queryable catalog
// for downstream loaders. Optional: when nil, cataloguing is disabled.
// Saves are keyed on the document source path so reruns replace rows
// rather than append duplicates.
type CatalogStore interface {
	// SaveDocument upserts a document and replaces its chunk rows.
	SaveDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// SaveRun records a completed ingestion run.
	SaveRun(ctx context.Context, run *domain.IngestionRun) error

	// Close releases the underlying storage.
	Close() error
}
