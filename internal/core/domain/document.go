package domain

import "fmt"

// IdentityUnknown is the placeholder for identity fields that could not
// be derived from the source path.
const IdentityUnknown = "unknown"

// Identity holds the provenance fields derived from a document's location
// under the input root (region/report-type/company/filename-with-year).
type Identity struct {
	// Company is the reporting company, e.g. "nvidia".
	Company string

	// Region is the filing region, e.g. "us" or "india".
	Region string

	// Year is the report year, e.g. "2024".
	Year string

	// ReportType is the report category, e.g. "annual".
	ReportType string
}

// UnknownIdentity returns an Identity with every field set to the
// unknown placeholder. Used when the path convention is not matched.
func UnknownIdentity() Identity {
	return Identity{
		Company:    IdentityUnknown,
		Region:     IdentityUnknown,
		Year:       IdentityUnknown,
		ReportType: IdentityUnknown,
	}
}

// Resolved returns true if at least the company field was derived
// from the source path.
func (id Identity) Resolved() bool {
	return id.Company != "" && id.Company != IdentityUnknown
}

// Document represents one source PDF flowing through the pipeline.
// Identity is the source path; a document is immutable once extracted.
type Document struct {
	// Path is the absolute source path. This is the document's identity.
	Path string

	// RelPath is the path relative to the input root. Output artifacts
	// mirror this location under the output root.
	RelPath string

	// Identity holds provenance derived from RelPath.
	Identity Identity

	// PageCount is the number of pages in the source PDF.
	PageCount int

	// Text is the normalised text, populated after the cleaning
	// pipeline runs. Chunk offsets refer to this string.
	Text string

	// Stats records what the cleaning pipeline changed.
	Stats CleaningStats

	// Warnings collects non-fatal anomalies (skipped cleaning stages,
	// unresolved path convention). They end up in the run summary.
	Warnings []string
}

// CleaningStats tracks what the text normaliser changed.
type CleaningStats struct {
	// OriginalChars is the length of the raw concatenated page text.
	OriginalChars int

	// CleanedChars is the length of the normalised text.
	CleanedChars int

	// LinesRemoved counts boilerplate lines stripped (headers, footers,
	// page numbers).
	LinesRemoved int
}

// ReductionPercent reports how much of the raw text was removed as noise.
func (s CleaningStats) ReductionPercent() float64 {
	if s.OriginalChars == 0 {
		return 0
	}
	return (1 - float64(s.CleanedChars)/float64(s.OriginalChars)) * 100
}

// Chunk is a contiguous substring of a document's normalised text plus
// provenance metadata. It is the unit handed to downstream embedding.
type Chunk struct {
	// ID is the deterministic chunk identifier, company_year_chunkNNNN.
	// Deterministic IDs are required so reruns replace rather than
	// duplicate catalog rows.
	ID string

	// Index is the 0-based position within the document.
	Index int

	// Start is the byte offset of the chunk within the normalised text.
	Start int

	// End is the exclusive end offset within the normalised text.
	End int

	// Text is the chunk content, exactly Text[Start:End] of the document.
	Text string

	// Length is the chunk length in bytes.
	Length int

	// Company, Region and Year are copied from the document identity so
	// the chunk is self-describing once it leaves the pipeline.
	Company string
	Region  string
	Year    string
}

// ChunkID builds the deterministic chunk identifier for a document
// identity and chunk index.
func ChunkID(id Identity, index int) string {
	return fmt.Sprintf("%s_%s_chunk%04d", id.Company, id.Year, index)
}
