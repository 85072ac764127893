// Package cli implements the command-line driving adapter.
// Commands are thin: they parse flags, merge them over the persisted
// settings, and delegate to the driving ports. Services are injected
// by the composition root via SetServices before Execute runs.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driving"
	"github.com/finsight-labs/finsight-cli/internal/logger"
)

var version = "dev"

// OrchestratorFactory builds an ingest orchestrator for the given
// settings. The returned cleanup releases resources held by the
// orchestrator's adapters, the catalog connection in particular.
type OrchestratorFactory func(settings domain.IngestSettings) (driving.IngestOrchestrator, func() error, error)

// ChangeWatcher reports changed document paths under a directory tree.
type ChangeWatcher interface {
	Watch(ctx context.Context, root string) (<-chan string, error)
	Close() error
}

var (
	settingsService     driving.SettingsService
	orchestratorFactory OrchestratorFactory
	newWatcher          func() (ChangeWatcher, error)
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "finsight",
	Short: "Ingest financial annual reports into retrieval-ready chunks",
	Long: `FinSight CLI extracts text from PDF annual reports, cleans it, splits
it into overlapping chunks, and writes per-document artifacts plus an
aggregate run summary. An optional SQLite catalog records every chunk
for later retrieval.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices injects the driving services used by the commands.
func SetServices(
	settings driving.SettingsService,
	factory OrchestratorFactory,
	watcher func() (ChangeWatcher, error),
) {
	settingsService = settings
	orchestratorFactory = factory
	newWatcher = watcher
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
