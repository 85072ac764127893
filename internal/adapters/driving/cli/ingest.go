package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driving"
)

var (
	ingestOutput      string
	ingestChunkSize   int
	ingestOverlap     int
	ingestWorkers     int
	ingestTimeoutSecs int
	ingestCatalog     string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [input-root]",
	Short: "Process PDF annual reports into cleaned text and chunks",
	Long: `Scans the input directory recursively for PDF reports, extracts and
cleans their text, splits it into overlapping chunks, and writes the
artifacts under the output directory, mirroring the input tree.

If no input root is given, the configured ingest.input_root is used.
Flags override the persisted configuration for this run only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestOutput, "output", "o", "", "output directory for processed artifacts")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "target chunk size in bytes")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", 0, "overlap between consecutive chunks in bytes")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "number of documents processed concurrently")
	ingestCmd.Flags().IntVar(&ingestTimeoutSecs, "timeout", 0, "per-document timeout in seconds")
	ingestCmd.Flags().StringVar(&ingestCatalog, "catalog", "", "SQLite catalog path")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if orchestratorFactory == nil {
		return errors.New("ingest service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	applyIngestFlags(cmd, &settings, args)

	orch, cleanup, err := orchestratorFactory(settings)
	if err != nil {
		return fmt.Errorf("failed to configure ingestion: %w", err)
	}
	defer func() { _ = cleanup() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Ingesting reports from %s...\n", settings.InputRoot)

	run, err := ingestWithProgress(ctx, cmd, orch)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printRunSummary(cmd, run)
	return nil
}

// applyIngestFlags overlays explicitly set flags on the persisted
// settings. Unset flags leave the configured values untouched.
func applyIngestFlags(cmd *cobra.Command, settings *domain.IngestSettings, args []string) {
	if len(args) > 0 {
		settings.InputRoot = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("output") {
		settings.OutputRoot = ingestOutput
	}
	if flags.Changed("chunk-size") {
		settings.ChunkSize = ingestChunkSize
	}
	if flags.Changed("overlap") {
		settings.ChunkOverlap = ingestOverlap
	}
	if flags.Changed("workers") {
		settings.Workers = ingestWorkers
	}
	if flags.Changed("timeout") {
		settings.DocumentTimeout = time.Duration(ingestTimeoutSecs) * time.Second
	}
	if flags.Changed("catalog") {
		settings.CatalogPath = ingestCatalog
	}
}

// ingestWithProgress runs the pipeline while displaying progress updates.
func ingestWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	orch driving.IngestOrchestrator,
) (*domain.IngestionRun, error) {
	type runResult struct {
		run *domain.IngestionRun
		err error
	}

	// Start the run in a goroutine
	resCh := make(chan runResult, 1)
	go func() {
		run, err := orch.Run(ctx)
		resCh <- runResult{run: run, err: err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case res := <-resCh:
			if lastCount > 0 {
				cmd.Println()
			}
			return res.run, res.err
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			status, statusErr := orch.Status(ctx)
			if statusErr == nil && status != nil && status.DocumentsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d documents", status.DocumentsProcessed)
				lastCount = status.DocumentsProcessed
			}
		}
	}
}

func printRunSummary(cmd *cobra.Command, run *domain.IngestionRun) {
	cmd.Println()
	cmd.Println("Ingestion Summary")
	cmd.Println("=================")
	for _, doc := range run.Documents {
		if doc.Failed {
			cmd.Printf("  FAIL %s: %s\n", doc.File, doc.Error)
			continue
		}
		cmd.Printf("  OK   %s (%s %s): %d pages, %d chunks\n",
			doc.File, doc.Company, doc.Year, doc.Pages, doc.Chunks)
		for _, w := range doc.Warnings {
			cmd.Printf("       warning: %s\n", w)
		}
	}
	cmd.Println()
	cmd.Printf("Processed %d/%d documents (%d failed) in %.1fs\n",
		run.Processed(), len(run.Documents), run.FailedCount(), run.Elapsed.Seconds())
	cmd.Printf("Total: %d pages, %d chunks\n", run.TotalPages(), run.TotalChunks())
}
