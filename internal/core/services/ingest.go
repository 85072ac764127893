package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driving"
	"github.com/finsight-labs/finsight-cli/internal/logger"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.IngestOrchestrator = (*IngestOrchestrator)(nil)

// IngestOrchestrator coordinates the ingestion pipeline over a corpus of
// documents: discover, then per document extract, normalise, chunk,
// attach metadata and persist. Documents are independent, so they are
// fanned out over a worker pool; the run summary is the only shared
// accumulator.
type IngestOrchestrator struct {
	settings   domain.IngestSettings
	finder     driven.DocumentFinder
	extractor  driven.Extractor
	normaliser driven.Normaliser
	pipeline   driven.PostProcessorPipeline
	artifacts  driven.ArtifactStore
	catalog    driven.CatalogStore

	// Status tracking
	mu     sync.RWMutex
	status *driving.IngestStatus
}

// NewIngestOrchestrator creates an ingestion orchestrator.
// Settings are validated here: configuration errors abort before any
// document is processed, since they would invalidate all output
// uniformly. The catalog is optional; pass nil to disable cataloguing.
func NewIngestOrchestrator(
	settings domain.IngestSettings,
	finder driven.DocumentFinder,
	extractor driven.Extractor,
	normaliser driven.Normaliser,
	pipeline driven.PostProcessorPipeline,
	artifacts driven.ArtifactStore,
	catalog driven.CatalogStore,
) (*IngestOrchestrator, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &IngestOrchestrator{
		settings:   settings,
		finder:     finder,
		extractor:  extractor,
		normaliser: normaliser,
		pipeline:   pipeline,
		artifacts:  artifacts,
		catalog:    catalog,
	}, nil
}

// Run processes every PDF under the input root and returns the aggregate
// run summary. A failure processing one document is recorded in the
// summary and does not abort the remaining documents; only context
// cancellation stops the batch.
func (o *IngestOrchestrator) Run(ctx context.Context) (*domain.IngestionRun, error) {
	paths, err := o.finder.Find(ctx, o.settings.InputRoot)
	if err != nil {
		return nil, fmt.Errorf("discover documents: %w", err)
	}

	run := &domain.IngestionRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}

	o.setStatus(&driving.IngestStatus{Running: true})
	defer o.clearStatus()

	logger.Info("Starting ingestion run %s: %d documents under %s", run.ID, len(paths), o.settings.InputRoot)

	// One fixed slot per document: workers never contend on the slice,
	// and summary order matches discovery order.
	results := make([]domain.DocumentResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.settings.Workers)

	for i, path := range paths {
		g.Go(func() error {
			results[i] = o.processDocument(gctx, path)
			o.recordProgress(results[i].Failed)
			return nil
		})
	}

	// Workers only report per-document outcomes, never errors.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run.Documents = results
	run.Elapsed = time.Since(run.StartedAt)

	if err := o.artifacts.WriteSummary(ctx, run); err != nil {
		return nil, fmt.Errorf("write run summary: %w", err)
	}
	if o.catalog != nil {
		if err := o.catalog.SaveRun(ctx, run); err != nil {
			logger.Warn("Cannot catalog run %s: %v", run.ID, err)
		}
	}

	logger.Info("Ingestion complete: %d processed, %d failed, %d chunks in %s",
		run.Processed(), run.FailedCount(), run.TotalChunks(), run.Elapsed.Round(time.Millisecond))
	return run, nil
}

// Status returns progress of the in-flight run, or an idle status.
func (o *IngestOrchestrator) Status(_ context.Context) (*driving.IngestStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.status != nil {
		// Return a copy to avoid race conditions
		return &driving.IngestStatus{
			Running:            o.status.Running,
			DocumentsProcessed: o.status.DocumentsProcessed,
			ErrorCount:         o.status.ErrorCount,
		}, nil
	}
	return &driving.IngestStatus{Running: false}, nil
}

// processDocument runs the full pipeline for one document and always
// returns a result; failures are recorded, never propagated. Processing
// is bounded by the per-document timeout so a hung extraction cannot
// stall the batch.
func (o *IngestOrchestrator) processDocument(ctx context.Context, path string) domain.DocumentResult {
	ctx, cancel := context.WithTimeout(ctx, o.settings.DocumentTimeout)
	defer cancel()

	rel, err := filepath.Rel(o.settings.InputRoot, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)

	doc := &domain.Document{Path: path, RelPath: rel}
	result := domain.DocumentResult{
		File:    rel,
		Company: domain.IdentityUnknown,
		Year:    domain.IdentityUnknown,
	}

	logger.Debug("Processing: %s", rel)

	extraction, err := o.extractor.Extract(ctx, path)
	if err != nil {
		return failResult(result, "extract", err)
	}
	doc.PageCount = extraction.PageCount
	result.Pages = extraction.PageCount

	normalised, err := o.normaliser.Normalise(ctx, extraction.Pages)
	if err != nil {
		return failResult(result, "normalise", err)
	}
	doc.Text = normalised.Text
	doc.Stats = normalised.Stats
	doc.Warnings = append(doc.Warnings, normalised.Warnings...)

	chunks, err := o.pipeline.Process(ctx, doc)
	if err != nil {
		return failResult(result, "post-process", err)
	}

	if err := o.artifacts.WriteDocument(ctx, doc, chunks); err != nil {
		return failResult(result, "write artifacts", err)
	}

	if o.catalog != nil {
		if err := o.catalog.SaveDocument(ctx, doc, chunks); err != nil {
			// The artifacts on disk are the source of truth; a catalog
			// failure degrades to a warning.
			logger.Warn("Cannot catalog %s: %v", rel, err)
			doc.Warnings = append(doc.Warnings, "catalog: "+err.Error())
		}
	}

	result.Company = doc.Identity.Company
	result.Year = doc.Identity.Year
	result.Chunks = len(chunks)
	result.OriginalChars = doc.Stats.OriginalChars
	result.CleanedChars = doc.Stats.CleanedChars
	result.Warnings = doc.Warnings

	logger.Debug("Processed %s: %d pages, %d chunks", rel, result.Pages, result.Chunks)
	return result
}

// failResult marks a document as failed with the step that failed.
func failResult(result domain.DocumentResult, step string, err error) domain.DocumentResult {
	logger.Error("Failed to process %s: %s: %v", result.File, step, err)
	result.Failed = true
	result.Error = fmt.Sprintf("%s: %v", step, err)
	return result
}

// setStatus publishes the run status.
func (o *IngestOrchestrator) setStatus(status *driving.IngestStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = status
}

// clearStatus clears the run status once the run finishes.
func (o *IngestOrchestrator) clearStatus() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = nil
}

// recordProgress bumps the status counters for one finished document.
func (o *IngestOrchestrator) recordProgress(failed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status == nil {
		return
	}
	if failed {
		o.status.ErrorCount++
	} else {
		o.status.DocumentsProcessed++
	}
}
