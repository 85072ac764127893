package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driving"
)

// mockIngestOrchestrator implements driving.IngestOrchestrator for testing.
type mockIngestOrchestrator struct {
	run *domain.IngestionRun
	err error
}

func (m *mockIngestOrchestrator) Run(_ context.Context) (*domain.IngestionRun, error) {
	return m.run, m.err
}

func (m *mockIngestOrchestrator) Status(_ context.Context) (*driving.IngestStatus, error) {
	return nil, nil
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings domain.IngestSettings
	saved    *domain.IngestSettings
	getErr   error
	saveErr  error
}

func (m *mockSettingsService) Get() (domain.IngestSettings, error) {
	return m.settings, m.getErr
}

func (m *mockSettingsService) Save(settings domain.IngestSettings) error {
	m.saved = &settings
	return m.saveErr
}

func sampleRun() *domain.IngestionRun {
	return &domain.IngestionRun{
		ID:        "run-1",
		StartedAt: time.Now(),
		Elapsed:   3 * time.Second,
		Documents: []domain.DocumentResult{
			{
				File:    "us/annual_reports/nvidia/nvidia_2024_annual_report.pdf",
				Company: "nvidia",
				Year:    "2024",
				Pages:   90,
				Chunks:  120,
			},
			{
				File:   "us/annual_reports/intel/intel_2024_annual_report.pdf",
				Failed: true,
				Error:  "extract: document is encrypted",
			},
		},
	}
}

// setupIngestTest swaps the package services for mocks and returns a
// cleanup that restores them and resets flag state.
func setupIngestTest(orch driving.IngestOrchestrator) (*mockSettingsService, func()) {
	oldSettings := settingsService
	oldFactory := orchestratorFactory

	svc := &mockSettingsService{settings: domain.IngestSettings{
		InputRoot:       "/data/reports",
		OutputRoot:      "/data/processed",
		ChunkSize:       domain.DefaultChunkSize,
		ChunkOverlap:    domain.DefaultChunkOverlap,
		BoundaryWindow:  domain.DefaultBoundaryWindow,
		HeaderThreshold: domain.DefaultHeaderThreshold,
		Workers:         domain.DefaultWorkers,
		DocumentTimeout: domain.DefaultDocumentTimeout,
	}}
	settingsService = svc

	orchestratorFactory = func(_ domain.IngestSettings) (driving.IngestOrchestrator, func() error, error) {
		return orch, func() error { return nil }, nil
	}

	return svc, func() {
		settingsService = oldSettings
		orchestratorFactory = oldFactory
		ingestCmd.Flags().VisitAll(func(f *pflag.Flag) {
			f.Changed = false
		})
		rootCmd.SetArgs(nil)
	}
}

func execIngest(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"ingest"}, args...))

	return buf, rootCmd.Execute()
}

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [input-root]", ingestCmd.Use)
}

func TestIngestCmd_Short(t *testing.T) {
	assert.Equal(t, "Process PDF annual reports into cleaned text and chunks", ingestCmd.Short)
}

func TestIngestCmd_PrintsSummary(t *testing.T) {
	_, cleanup := setupIngestTest(&mockIngestOrchestrator{run: sampleRun()})
	defer cleanup()

	buf, err := execIngest(t)

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Ingesting reports from /data/reports...")
	assert.Contains(t, out, "Ingestion Summary")
	assert.Contains(t, out, "OK   us/annual_reports/nvidia/nvidia_2024_annual_report.pdf (nvidia 2024): 90 pages, 120 chunks")
	assert.Contains(t, out, "FAIL us/annual_reports/intel/intel_2024_annual_report.pdf: extract: document is encrypted")
	assert.Contains(t, out, "Processed 1/2 documents (1 failed)")
	assert.Contains(t, out, "Total: 90 pages, 120 chunks")
}

func TestIngestCmd_SettingsServiceNotConfigured(t *testing.T) {
	oldSettings := settingsService
	settingsService = nil
	defer func() {
		settingsService = oldSettings
		rootCmd.SetArgs(nil)
	}()

	_, err := execIngest(t)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}

func TestIngestCmd_OrchestratorNotConfigured(t *testing.T) {
	oldSettings := settingsService
	oldFactory := orchestratorFactory
	settingsService = &mockSettingsService{}
	orchestratorFactory = nil
	defer func() {
		settingsService = oldSettings
		orchestratorFactory = oldFactory
		rootCmd.SetArgs(nil)
	}()

	_, err := execIngest(t)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ingest service not configured")
}

func TestIngestCmd_RunError(t *testing.T) {
	_, cleanup := setupIngestTest(&mockIngestOrchestrator{err: errors.New("discover documents: no such directory")})
	defer cleanup()

	_, err := execIngest(t)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion failed")
}

func TestIngestCmd_FactoryError(t *testing.T) {
	oldSettings := settingsService
	oldFactory := orchestratorFactory
	settingsService = &mockSettingsService{}
	orchestratorFactory = func(_ domain.IngestSettings) (driving.IngestOrchestrator, func() error, error) {
		return nil, nil, domain.ErrInvalidConfig
	}
	defer func() {
		settingsService = oldSettings
		orchestratorFactory = oldFactory
		rootCmd.SetArgs(nil)
	}()

	_, err := execIngest(t)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to configure ingestion")
}

func TestIngestCmd_FlagsOverrideSettings(t *testing.T) {
	orch := &mockIngestOrchestrator{run: &domain.IngestionRun{}}

	oldSettings := settingsService
	oldFactory := orchestratorFactory
	settingsService = &mockSettingsService{settings: domain.DefaultIngestSettings()}

	var captured domain.IngestSettings
	orchestratorFactory = func(settings domain.IngestSettings) (driving.IngestOrchestrator, func() error, error) {
		captured = settings
		return orch, func() error { return nil }, nil
	}
	defer func() {
		settingsService = oldSettings
		orchestratorFactory = oldFactory
		ingestCmd.Flags().VisitAll(func(f *pflag.Flag) {
			f.Changed = false
		})
		rootCmd.SetArgs(nil)
	}()

	_, err := execIngest(t,
		"/data/other",
		"--output", "/data/out",
		"--chunk-size", "800",
		"--overlap", "0",
		"--workers", "2",
		"--timeout", "60",
		"--catalog", "/data/catalog.db",
	)

	require.NoError(t, err)
	assert.Equal(t, "/data/other", captured.InputRoot)
	assert.Equal(t, "/data/out", captured.OutputRoot)
	assert.Equal(t, 800, captured.ChunkSize)
	assert.Zero(t, captured.ChunkOverlap)
	assert.Equal(t, 2, captured.Workers)
	assert.Equal(t, time.Minute, captured.DocumentTimeout)
	assert.Equal(t, "/data/catalog.db", captured.CatalogPath)
}
