package domain

import "time"

// DocumentResult records the outcome of processing one document.
// Every discovered document gets exactly one entry, including failures;
// no document is silently dropped.
type DocumentResult struct {
	// File is the source path relative to the input root.
	File string

	// Company and Year identify the report (may be "unknown").
	Company string
	Year    string

	// Pages is the source page count (0 when extraction failed).
	Pages int

	// Chunks is the number of chunks produced.
	Chunks int

	// OriginalChars and CleanedChars are the cleaning statistics.
	OriginalChars int
	CleanedChars  int

	// Warnings lists non-fatal anomalies (skipped stages, unresolved
	// path convention).
	Warnings []string

	// Failed is true when the document produced no output.
	Failed bool

	// Error is the failure reason when Failed is set.
	Error string
}

// IngestionRun is the aggregate record of one orchestrator invocation.
// It is created once per run, persisted as the run's terminal output,
// and never mutated after the run completes.
type IngestionRun struct {
	// ID uniquely identifies the run.
	ID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Elapsed is the total wall-clock duration of the run.
	Elapsed time.Duration

	// Documents holds one result per discovered document. Order within
	// the list carries no meaning; chunk order within a document does.
	Documents []DocumentResult
}

// Processed returns the number of successfully processed documents.
func (r *IngestionRun) Processed() int {
	n := 0
	for _, d := range r.Documents {
		if !d.Failed {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failed documents.
func (r *IngestionRun) FailedCount() int {
	return len(r.Documents) - r.Processed()
}

// TotalPages sums the page counts across all documents.
func (r *IngestionRun) TotalPages() int {
	n := 0
	for _, d := range r.Documents {
		n += d.Pages
	}
	return n
}

// TotalChunks sums the chunk counts across all documents.
func (r *IngestionRun) TotalChunks() int {
	n := 0
	for _, d := range r.Documents {
		n += d.Chunks
	}
	return n
}
