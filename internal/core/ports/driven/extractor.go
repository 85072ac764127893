package driven

import "context"

// Extraction is the raw output of PDF text extraction for one document.
type Extraction struct {
	// Pages holds the raw text of each page, ordered by page number.
	Pages []string

	// PageCount is the total number of pages in the source, including
	// pages that yielded no text.
	PageCount int
}

// Extractor produces raw per-page text from a source PDF.
// Implementations wrap an external extraction capability and must honour
// context cancellation so a hung document cannot stall the batch.
// Unreadable, encrypted or invalid sources fail with an error wrapping
// domain.ErrExtraction.
type Extractor interface {
	// Extract reads the PDF at path and returns its page texts.
	Extract(ctx context.Context, path string) (*Extraction, error)
}

// DocumentFinder discovers candidate source documents.
type DocumentFinder interface {
	// Find returns the paths of all PDFs under root, recursively.
	// The result is sorted for deterministic processing order.
	Find(ctx context.Context, root string) ([]string, error)
}
