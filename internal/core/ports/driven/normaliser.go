package driven

import (
	"context"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
)

// Normaliser transforms raw page text into a single normalised string.
// The transformation is deterministic: identical pages always yield
// identical output.
type Normaliser interface {
	// Normalise runs the cleaning pipeline over the document's pages.
	Normalise(ctx context.Context, pages []string) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Note: Normalisation only produces the cleaned text.
// Chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Text is the normalised document text. Chunk offsets refer to it.
	Text string

	// Stats records what the cleaning pipeline changed.
	Stats domain.CleaningStats

	// Warnings lists cleaning stages that failed and were skipped.
	// A skipped stage degrades output quality but never loses the
	// document.
	Warnings []string
}
