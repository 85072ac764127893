package services

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
)

// --- Mock implementations for ingest testing ---

// ingestMockFinder implements driven.DocumentFinder.
type ingestMockFinder struct {
	paths []string
	err   error
}

func (m *ingestMockFinder) Find(_ context.Context, _ string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.paths, nil
}

// ingestMockExtractor implements driven.Extractor with canned pages per path.
type ingestMockExtractor struct {
	pages   map[string][]string
	failing map[string]error
	delay   time.Duration
}

func (m *ingestMockExtractor) Extract(ctx context.Context, path string) (*driven.Extraction, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := m.failing[path]; ok {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	pages := m.pages[path]
	return &driven.Extraction{Pages: pages, PageCount: len(pages)}, nil
}

// ingestMockNormaliser joins pages verbatim.
type ingestMockNormaliser struct{}

func (m *ingestMockNormaliser) Normalise(_ context.Context, pages []string) (*driven.NormaliseResult, error) {
	text := ""
	raw := 0
	for i, p := range pages {
		if i > 0 {
			text += "\n"
		}
		text += p
		raw += len(p)
	}
	return &driven.NormaliseResult{
		Text:  text,
		Stats: domain.CleaningStats{OriginalChars: raw, CleanedChars: len(text)},
	}, nil
}

// ingestMockPipeline emits one chunk per document unless the text is empty.
type ingestMockPipeline struct {
	err error
}

func (m *ingestMockPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	if doc.Text == "" {
		return nil, nil
	}
	doc.Identity = domain.Identity{Company: "acme", Region: "us", Year: "2024", ReportType: "annual"}
	return []domain.Chunk{
		{ID: "acme_2024_chunk0000", Index: 0, Text: doc.Text, Length: len(doc.Text)},
	}, nil
}

// ingestMockArtifacts records writes under a lock.
type ingestMockArtifacts struct {
	mu         stdsync.Mutex
	docs       map[string]int
	summary    *domain.IngestionRun
	writeErr   error
	summaryErr error
}

func newIngestMockArtifacts() *ingestMockArtifacts {
	return &ingestMockArtifacts{docs: make(map[string]int)}
}

func (m *ingestMockArtifacts) WriteDocument(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.RelPath] = len(chunks)
	return nil
}

func (m *ingestMockArtifacts) WriteSummary(_ context.Context, run *domain.IngestionRun) error {
	if m.summaryErr != nil {
		return m.summaryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = run
	return nil
}

// ingestMockCatalog implements driven.CatalogStore.
type ingestMockCatalog struct {
	mu      stdsync.Mutex
	docs    []string
	runs    []string
	saveErr error
}

func (m *ingestMockCatalog) SaveDocument(_ context.Context, doc *domain.Document, _ []domain.Chunk) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, doc.Path)
	return nil
}

func (m *ingestMockCatalog) SaveRun(_ context.Context, run *domain.IngestionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run.ID)
	return nil
}

func (m *ingestMockCatalog) Close() error { return nil }

func testSettings() domain.IngestSettings {
	s := domain.DefaultIngestSettings()
	s.InputRoot = "/data/reports"
	s.OutputRoot = "/data/out"
	return s
}

func newTestOrchestrator(
	t *testing.T,
	finder driven.DocumentFinder,
	extractor driven.Extractor,
	pipeline driven.PostProcessorPipeline,
	artifacts driven.ArtifactStore,
	catalog driven.CatalogStore,
) *IngestOrchestrator {
	t.Helper()

	o, err := NewIngestOrchestrator(
		testSettings(), finder, extractor, &ingestMockNormaliser{}, pipeline, artifacts, catalog)
	require.NoError(t, err)
	return o
}

func TestNewIngestOrchestrator_InvalidSettings(t *testing.T) {
	settings := testSettings()
	settings.ChunkOverlap = settings.ChunkSize

	_, err := NewIngestOrchestrator(settings,
		&ingestMockFinder{}, &ingestMockExtractor{}, &ingestMockNormaliser{},
		&ingestMockPipeline{}, newIngestMockArtifacts(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestIngestOrchestrator_Run(t *testing.T) {
	finder := &ingestMockFinder{paths: []string{
		"/data/reports/us/annual/acme/acme_2024_annual.pdf",
		"/data/reports/us/annual/acme/acme_2023_annual.pdf",
	}}
	extractor := &ingestMockExtractor{pages: map[string][]string{
		"/data/reports/us/annual/acme/acme_2024_annual.pdf": {"page one", "page two"},
		"/data/reports/us/annual/acme/acme_2023_annual.pdf": {"only page"},
	}}
	artifacts := newIngestMockArtifacts()

	o := newTestOrchestrator(t, finder, extractor, &ingestMockPipeline{}, artifacts, nil)

	run, err := o.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.NotEmpty(t, run.ID)
	assert.Len(t, run.Documents, 2)
	assert.Equal(t, 2, run.Processed())
	assert.Zero(t, run.FailedCount())
	assert.Equal(t, 3, run.TotalPages())
	assert.Equal(t, 2, run.TotalChunks())

	// Summary order matches discovery order.
	assert.Equal(t, "us/annual/acme/acme_2024_annual.pdf", run.Documents[0].File)
	assert.Equal(t, "acme", run.Documents[0].Company)
	assert.Equal(t, "2024", run.Documents[0].Year)

	// Per-document artifacts plus the summary were persisted.
	assert.Len(t, artifacts.docs, 2)
	require.NotNil(t, artifacts.summary)
	assert.Equal(t, run.ID, artifacts.summary.ID)
}

func TestIngestOrchestrator_Run_FailureDoesNotAbortBatch(t *testing.T) {
	finder := &ingestMockFinder{paths: []string{
		"/data/reports/a.pdf",
		"/data/reports/b.pdf",
		"/data/reports/c.pdf",
	}}
	extractor := &ingestMockExtractor{
		pages: map[string][]string{
			"/data/reports/a.pdf": {"content a"},
			"/data/reports/c.pdf": {"content c"},
		},
		failing: map[string]error{
			"/data/reports/b.pdf": errors.New("file is encrypted"),
		},
	}
	artifacts := newIngestMockArtifacts()

	o := newTestOrchestrator(t, finder, extractor, &ingestMockPipeline{}, artifacts, nil)

	run, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, run.Processed())
	assert.Equal(t, 1, run.FailedCount())

	var failed *domain.DocumentResult
	for i := range run.Documents {
		if run.Documents[i].Failed {
			failed = &run.Documents[i]
		}
	}
	require.NotNil(t, failed, "failed document must be recorded in the summary")
	assert.Equal(t, "b.pdf", failed.File)
	assert.Contains(t, failed.Error, "extract")
	assert.Contains(t, failed.Error, "encrypted")
}

func TestIngestOrchestrator_Run_EmptyDocumentIsNotAFailure(t *testing.T) {
	finder := &ingestMockFinder{paths: []string{"/data/reports/blank.pdf"}}
	extractor := &ingestMockExtractor{pages: map[string][]string{
		"/data/reports/blank.pdf": {},
	}}
	artifacts := newIngestMockArtifacts()

	o := newTestOrchestrator(t, finder, extractor, &ingestMockPipeline{}, artifacts, nil)

	run, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Documents, 1)
	assert.False(t, run.Documents[0].Failed)
	assert.Zero(t, run.Documents[0].Chunks)
}

func TestIngestOrchestrator_Run_FinderError(t *testing.T) {
	finder := &ingestMockFinder{err: errors.New("permission denied")}

	o := newTestOrchestrator(t, finder, &ingestMockExtractor{}, &ingestMockPipeline{}, newIngestMockArtifacts(), nil)

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discover documents")
}

func TestIngestOrchestrator_Run_SummaryWriteError(t *testing.T) {
	finder := &ingestMockFinder{paths: []string{"/data/reports/a.pdf"}}
	extractor := &ingestMockExtractor{pages: map[string][]string{
		"/data/reports/a.pdf": {"content"},
	}}
	artifacts := newIngestMockArtifacts()
	artifacts.summaryErr = errors.New("disk full")

	o := newTestOrchestrator(t, finder, extractor, &ingestMockPipeline{}, artifacts, nil)

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write run summary")
}

func TestIngestOrchestrator_Run_ArtifactWriteFailsDocument(t *testing.T) {
	finder := &ingestMockFinder{paths: []string{"/data/reports/a.pdf"}}
	extractor := &ingestMockExtractor{pages: map[string][]string{
		"/data/reports/a.pdf": {"content"},
	}}
	artifacts := newIngestMockArtifacts()
	artifacts.writeErr = errors.New("read-only filesystem")

	o := newTestOrchestrator(t, finder, extractor, &ingestMockPipeline{}, artifacts, nil)

	run, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Documents, 1)
	assert.True(t, run.Documents[0].Failed)
	assert.Contains(t, run.Documents[0].Error, "write artifacts")
}

func TestIngestOrchestrator_Run_Catalog(t *testing.T) {
	t.Run("documents and run are catalogued", func(t *testing.T) {
		finder := &ingestMockFinder{paths: []string{"/data/reports/a.pdf"}}
		extractor := &ingestMockExtractor{pages: map[string][]string{
			"/data/reports/a.pdf": {"content"},
		}}
		catalog := &ingestMockCatalog{}

		o := newTestOrchestrator(t, finder, extractor, &ingestMockPipeline{}, newIngestMockArtifacts(), catalog)

		run, err := o.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, []string{"/data/reports/a.pdf"}, catalog.docs)
		assert.Equal(t, []string{run.ID}, catalog.runs)
	})

	t.Run("catalog failure degrades to a warning", func(t *testing.T) {
		finder := &ingestMockFinder{paths: []string{"/data/reports/a.pdf"}}
		extractor := &ingestMockExtractor{pages: map[string][]string{
			"/data/reports/a.pdf": {"content"},
		}}
		catalog := &ingestMockCatalog{saveErr: errors.New("database locked")}

		o := newTestOrchestrator(t, finder, extractor, &ingestMockPipeline{}, newIngestMockArtifacts(), catalog)

		run, err := o.Run(context.Background())
		require.NoError(t, err)

		require.Len(t, run.Documents, 1)
		assert.False(t, run.Documents[0].Failed)
		require.NotEmpty(t, run.Documents[0].Warnings)
		assert.Contains(t, run.Documents[0].Warnings[0], "catalog")
	})
}

func TestIngestOrchestrator_Run_ConcurrentWorkers(t *testing.T) {
	const docCount = 20

	paths := make([]string, docCount)
	pages := make(map[string][]string, docCount)
	for i := range paths {
		paths[i] = fmt.Sprintf("/data/reports/doc%02d.pdf", i)
		pages[paths[i]] = []string{fmt.Sprintf("content of document %d", i)}
	}

	finder := &ingestMockFinder{paths: paths}
	extractor := &ingestMockExtractor{pages: pages, delay: time.Millisecond}
	artifacts := newIngestMockArtifacts()

	o := newTestOrchestrator(t, finder, extractor, &ingestMockPipeline{}, artifacts, nil)

	run, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, docCount, run.Processed())
	assert.Len(t, artifacts.docs, docCount)
	for i, result := range run.Documents {
		assert.Equal(t, fmt.Sprintf("doc%02d.pdf", i), result.File, "summary slot %d", i)
	}
}

func TestIngestOrchestrator_Status(t *testing.T) {
	o := newTestOrchestrator(t, &ingestMockFinder{}, &ingestMockExtractor{}, &ingestMockPipeline{}, newIngestMockArtifacts(), nil)

	status, err := o.Status(context.Background())
	require.NoError(t, err)

	assert.False(t, status.Running)
	assert.Zero(t, status.DocumentsProcessed)
}
