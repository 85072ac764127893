// Command finsight is the FinSight CLI entry point. It wires the
// driven adapters to the core services and hands control to the
// command-line driving adapter.
package main

import (
	"fmt"
	"os"

	"github.com/finsight-labs/finsight-cli/internal/adapters/driven/config/file"
	"github.com/finsight-labs/finsight-cli/internal/adapters/driven/storage/artifacts"
	"github.com/finsight-labs/finsight-cli/internal/adapters/driven/storage/sqlite"
	"github.com/finsight-labs/finsight-cli/internal/adapters/driving/cli"
	"github.com/finsight-labs/finsight-cli/internal/connectors/filesystem"
	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driving"
	"github.com/finsight-labs/finsight-cli/internal/core/services"
	"github.com/finsight-labs/finsight-cli/internal/extractors/poppler"
	"github.com/finsight-labs/finsight-cli/internal/normalisers/report"
	"github.com/finsight-labs/finsight-cli/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("initialise config store: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)

	cli.SetVersion(version)
	cli.SetServices(settingsService, buildOrchestrator, newWatcher)

	return cli.Execute()
}

// buildOrchestrator wires the pipeline adapters for one run. The
// returned cleanup closes the catalog connection when one was opened.
func buildOrchestrator(settings domain.IngestSettings) (driving.IngestOrchestrator, func() error, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)

	// The chunker must run before the metadata attacher: chunk IDs are
	// stamped from the identity onto already produced chunks.
	chunkerProc, err := registry.Build("chunker", map[string]any{
		"chunk_size":      settings.ChunkSize,
		"overlap":         settings.ChunkOverlap,
		"boundary_window": settings.BoundaryWindow,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build chunker: %w", err)
	}
	metadataProc, err := registry.Build("metadata", nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build metadata attacher: %w", err)
	}
	pipeline := postprocessors.NewPipeline(chunkerProc, metadataProc)

	var catalog driven.CatalogStore
	cleanup := func() error { return nil }
	if settings.CatalogPath != "" {
		cat, err := sqlite.NewCatalog(settings.CatalogPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog: %w", err)
		}
		catalog = cat
		cleanup = cat.Close
	}

	orch, err := services.NewIngestOrchestrator(
		settings,
		filesystem.New(),
		poppler.New(),
		report.New(report.WithHeaderThreshold(settings.HeaderThreshold)),
		pipeline,
		artifacts.New(settings.OutputRoot),
		catalog,
	)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	return orch, cleanup, nil
}

func newWatcher() (cli.ChangeWatcher, error) {
	return filesystem.New(), nil
}
