package services

import (
	"fmt"
	"time"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyInputRoot       = "ingest.input_root"
	keyOutputRoot      = "ingest.output_root"
	keyChunkSize       = "ingest.chunk_size"
	keyChunkOverlap    = "ingest.chunk_overlap"
	keyBoundaryWindow  = "ingest.boundary_window"
	keyHeaderThreshold = "ingest.header_threshold"
	keyWorkers         = "ingest.workers"
	keyTimeoutSeconds  = "ingest.document_timeout_seconds"
	keyCatalogPath     = "catalog.path"
)

// SettingsService reads and writes ingestion settings through the
// config store, applying defaults for anything not configured.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current ingestion settings.
func (s *SettingsService) Get() (domain.IngestSettings, error) {
	settings := domain.DefaultIngestSettings()

	settings.InputRoot = s.configStore.GetString(keyInputRoot)
	settings.OutputRoot = s.configStore.GetString(keyOutputRoot)
	settings.CatalogPath = s.configStore.GetString(keyCatalogPath)

	if v := s.configStore.GetInt(keyChunkSize); v > 0 {
		settings.ChunkSize = v
	}
	if _, ok := s.configStore.Get(keyChunkOverlap); ok {
		settings.ChunkOverlap = s.configStore.GetInt(keyChunkOverlap)
	}
	if v := s.configStore.GetFloat(keyBoundaryWindow); v > 0 {
		settings.BoundaryWindow = v
	}
	if v := s.configStore.GetFloat(keyHeaderThreshold); v > 0 {
		settings.HeaderThreshold = v
	}
	if v := s.configStore.GetInt(keyWorkers); v > 0 {
		settings.Workers = v
	}
	if v := s.configStore.GetInt(keyTimeoutSeconds); v > 0 {
		settings.DocumentTimeout = time.Duration(v) * time.Second
	}

	return settings, nil
}

// Save persists ingestion settings.
func (s *SettingsService) Save(settings domain.IngestSettings) error {
	if err := s.configStore.Set(keyInputRoot, settings.InputRoot); err != nil {
		return fmt.Errorf("save input root: %w", err)
	}
	if err := s.configStore.Set(keyOutputRoot, settings.OutputRoot); err != nil {
		return fmt.Errorf("save output root: %w", err)
	}
	if err := s.configStore.Set(keyChunkSize, settings.ChunkSize); err != nil {
		return fmt.Errorf("save chunk size: %w", err)
	}
	if err := s.configStore.Set(keyChunkOverlap, settings.ChunkOverlap); err != nil {
		return fmt.Errorf("save chunk overlap: %w", err)
	}
	if err := s.configStore.Set(keyBoundaryWindow, settings.BoundaryWindow); err != nil {
		return fmt.Errorf("save boundary window: %w", err)
	}
	if err := s.configStore.Set(keyHeaderThreshold, settings.HeaderThreshold); err != nil {
		return fmt.Errorf("save header threshold: %w", err)
	}
	if err := s.configStore.Set(keyWorkers, settings.Workers); err != nil {
		return fmt.Errorf("save workers: %w", err)
	}
	if err := s.configStore.Set(keyTimeoutSeconds, int(settings.DocumentTimeout/time.Second)); err != nil {
		return fmt.Errorf("save document timeout: %w", err)
	}
	if settings.CatalogPath != "" {
		if err := s.configStore.Set(keyCatalogPath, settings.CatalogPath); err != nil {
			return fmt.Errorf("save catalog path: %w", err)
		}
	}
	return nil
}
