// Package artifacts persists pipeline output as plain files under the
// output root, mirroring the input tree. Each document gets a cleaned
// text file and a chunk-list JSON; the run writes one aggregate summary.
// All writes are atomic (temp file then rename) so an interrupted run
// never leaves a partially written artifact observable.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

// SummaryFileName is the run summary written at the output root.
const SummaryFileName = "ingestion_summary.json"

// Store writes pipeline artifacts under a root directory.
type Store struct {
	root string
}

// New creates an artifact store rooted at the given directory.
func New(root string) *Store {
	return &Store{root: root}
}

// chunkListFile is the serialised chunk artifact for one document.
type chunkListFile struct {
	Metadata chunkListMetadata `json:"metadata"`
	Chunks   []chunkRecord     `json:"chunks"`
}

// chunkListMetadata describes the document the chunks came from.
type chunkListMetadata struct {
	Company          string  `json:"company"`
	Year             string  `json:"year"`
	Region           string  `json:"region"`
	ReportType       string  `json:"report_type"`
	SourceFile       string  `json:"source_file"`
	TotalPages       int     `json:"total_pages"`
	OriginalChars    int     `json:"original_chars"`
	CleanedChars     int     `json:"cleaned_chars"`
	ReductionPercent float64 `json:"reduction_percent"`
	TotalChunks      int     `json:"total_chunks"`
	AvgChunkSize     float64 `json:"avg_chunk_size"`
}

// chunkRecord is one serialised chunk.
type chunkRecord struct {
	ChunkID    string `json:"chunk_id"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	CharCount  int    `json:"char_count"`
	StartChar  int    `json:"start_char"`
	EndChar    int    `json:"end_char"`
	Company    string `json:"company"`
	Region     string `json:"region"`
	Year       string `json:"year"`
}

// summaryFile is the serialised run summary.
type summaryFile struct {
	PipelineRun summaryRun      `json:"pipeline_run"`
	Documents   []summaryRecord `json:"documents"`
}

type summaryRun struct {
	RunID          string  `json:"run_id"`
	Timestamp      string  `json:"timestamp"`
	TotalDocuments int     `json:"total_documents"`
	Successful     int     `json:"successful"`
	Failed         int     `json:"failed"`
	TotalPages     int     `json:"total_pages"`
	TotalChunks    int     `json:"total_chunks"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

type summaryRecord struct {
	File          string   `json:"file"`
	Company       string   `json:"company"`
	Year          string   `json:"year"`
	Pages         int      `json:"pages"`
	Chunks        int      `json:"chunks"`
	CharsOriginal int      `json:"chars_original"`
	CharsCleaned  int      `json:"chars_cleaned"`
	Warnings      []string `json:"warnings,omitempty"`
	Failed        bool     `json:"failed,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// WriteDocument persists the cleaned text and the chunk list for one
// document, mirroring its relative path under the output root:
//
//	us/annual/nvidia/nvidia_2024_annual.pdf
//	-> us/annual/nvidia/nvidia_2024_annual.txt
//	-> us/annual/nvidia/nvidia_2024_annual_chunks.json
//
// Reprocessing an unchanged document rewrites byte-identical files.
func (s *Store) WriteDocument(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}

	rel := doc.RelPath
	if rel == "" {
		rel = filepath.Base(doc.Path)
	}
	stem := strings.TrimSuffix(filepath.FromSlash(rel), filepath.Ext(rel))

	txtPath := filepath.Join(s.root, stem+".txt")
	if err := writeFileAtomic(txtPath, []byte(doc.Text)); err != nil {
		return fmt.Errorf("write text artifact: %w", err)
	}

	payload := chunkListFile{
		Metadata: chunkListMetadata{
			Company:          doc.Identity.Company,
			Year:             doc.Identity.Year,
			Region:           doc.Identity.Region,
			ReportType:       doc.Identity.ReportType,
			SourceFile:       filepath.Base(rel),
			TotalPages:       doc.PageCount,
			OriginalChars:    doc.Stats.OriginalChars,
			CleanedChars:     doc.Stats.CleanedChars,
			ReductionPercent: round2(doc.Stats.ReductionPercent()),
			TotalChunks:      len(chunks),
			AvgChunkSize:     math.Round(avgChunkSize(chunks)),
		},
		Chunks: make([]chunkRecord, 0, len(chunks)),
	}
	for _, chunk := range chunks {
		payload.Chunks = append(payload.Chunks, chunkRecord{
			ChunkID:    chunk.ID,
			ChunkIndex: chunk.Index,
			Text:       chunk.Text,
			CharCount:  chunk.Length,
			StartChar:  chunk.Start,
			EndChar:    chunk.End,
			Company:    chunk.Company,
			Region:     chunk.Region,
			Year:       chunk.Year,
		})
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chunk list: %w", err)
	}

	jsonPath := filepath.Join(s.root, stem+"_chunks.json")
	if err := writeFileAtomic(jsonPath, data); err != nil {
		return fmt.Errorf("write chunk artifact: %w", err)
	}
	return nil
}

// WriteSummary persists the aggregate run summary at the output root.
func (s *Store) WriteSummary(_ context.Context, run *domain.IngestionRun) error {
	if run == nil {
		return domain.ErrInvalidInput
	}

	payload := summaryFile{
		PipelineRun: summaryRun{
			RunID:          run.ID,
			Timestamp:      run.StartedAt.Format("2006-01-02 15:04:05"),
			TotalDocuments: len(run.Documents),
			Successful:     run.Processed(),
			Failed:         run.FailedCount(),
			TotalPages:     run.TotalPages(),
			TotalChunks:    run.TotalChunks(),
			ElapsedSeconds: round2(run.Elapsed.Seconds()),
		},
		Documents: make([]summaryRecord, 0, len(run.Documents)),
	}
	for _, doc := range run.Documents {
		payload.Documents = append(payload.Documents, summaryRecord{
			File:          doc.File,
			Company:       doc.Company,
			Year:          doc.Year,
			Pages:         doc.Pages,
			Chunks:        doc.Chunks,
			CharsOriginal: doc.OriginalChars,
			CharsCleaned:  doc.CleanedChars,
			Warnings:      doc.Warnings,
			Failed:        doc.Failed,
			Error:         doc.Error,
		})
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(s.root, SummaryFileName), data); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file in the target
// directory and renames it into place. Rename within one directory is
// atomic, so readers see either the old content or the new, never a
// partial write.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// avgChunkSize returns the mean chunk length, 0 for no chunks.
func avgChunkSize(chunks []domain.Chunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, c := range chunks {
		total += c.Length
	}
	return float64(total) / float64(len(chunks))
}

// round2 rounds to two decimal places for stable serialised output.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
