package driving

import (
	"context"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
)

// IngestOrchestrator coordinates the extract -> normalise -> chunk ->
// attach -> persist pipeline over a corpus of documents.
type IngestOrchestrator interface {
	// Run processes every PDF under the configured input root and
	// returns the aggregate run summary. Per-document failures are
	// recorded in the summary; only configuration errors abort the run.
	Run(ctx context.Context) (*domain.IngestionRun, error)

	// Status returns progress of the in-flight run.
	Status(ctx context.Context) (*IngestStatus, error)
}

// IngestStatus represents the current state of an ingestion run.
type IngestStatus struct {
	// Running indicates if a run is currently in progress.
	Running bool

	// DocumentsProcessed is the count of documents completed so far.
	DocumentsProcessed int

	// ErrorCount is the number of failed documents so far.
	ErrorCount int
}
