package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage ingestion settings",
	Long: `View and configure the ingestion pipeline settings.

Use "settings show" to view the current configuration and
"settings set" to change a value.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a single configuration value and persist it.

Available keys:
  input-root        directory scanned for PDF reports
  output-root       directory for processed artifacts
  chunk-size        target chunk size in bytes
  overlap           overlap between consecutive chunks in bytes
  boundary-window   boundary back-search fraction, in (0, 1]
  header-threshold  repeated header/footer page fraction, in (0, 1]
  workers           documents processed concurrently
  timeout           per-document timeout in seconds
  catalog           SQLite catalog path`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Input root: %s\n", orUnset(settings.InputRoot))
	cmd.Printf("  Output root: %s\n", orUnset(settings.OutputRoot))
	cmd.Printf("  Chunk size: %d\n", settings.ChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.ChunkOverlap)
	cmd.Printf("  Boundary window: %g\n", settings.BoundaryWindow)
	cmd.Printf("  Header threshold: %g\n", settings.HeaderThreshold)
	cmd.Printf("  Workers: %d\n", settings.Workers)
	cmd.Printf("  Document timeout: %s\n", settings.DocumentTimeout)
	cmd.Println()

	cmd.Println("[Catalog]")
	if settings.CatalogPath != "" {
		cmd.Printf("  Path: %s\n", settings.CatalogPath)
	} else {
		cmd.Println("  Path: (not set, catalog disabled)")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	key, value := args[0], args[1]
	if err := applySetting(&settings, key, value); err != nil {
		return err
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Set %s to %s\n", key, value)
	return nil
}

func applySetting(settings *domain.IngestSettings, key, value string) error {
	switch key {
	case "input-root":
		settings.InputRoot = value
	case "output-root":
		settings.OutputRoot = value
	case "catalog":
		settings.CatalogPath = value
	case "chunk-size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid chunk size %q", value)
		}
		settings.ChunkSize = n
	case "overlap":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid overlap %q", value)
		}
		settings.ChunkOverlap = n
	case "boundary-window":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid boundary window %q", value)
		}
		settings.BoundaryWindow = f
	case "header-threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid header threshold %q", value)
		}
		settings.HeaderThreshold = f
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid workers %q", value)
		}
		settings.Workers = n
	case "timeout":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid timeout %q", value)
		}
		settings.DocumentTimeout = time.Duration(n) * time.Second
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
