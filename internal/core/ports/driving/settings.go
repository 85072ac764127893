package driving

import "github.com/finsight-labs/finsight-cli/internal/core/domain"

// SettingsService manages the persisted ingestion settings.
type SettingsService interface {
	// Get retrieves the current settings, with defaults applied for
	// anything not configured.
	Get() (domain.IngestSettings, error)

	// Save persists the settings.
	Save(settings domain.IngestSettings) error
}
