package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsight-labs/finsight-cli/internal/logger"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [input-root]",
	Short: "Watch the input directory and re-run ingestion on changes",
	Long: `Runs the ingestion pipeline, then watches the input directory for new
or modified PDF reports and re-runs the pipeline after changes settle.
Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second,
		"quiet period before re-running after a change")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if orchestratorFactory == nil || newWatcher == nil {
		return errors.New("watch service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if len(args) > 0 {
		settings.InputRoot = args[0]
	}

	orch, cleanup, err := orchestratorFactory(settings)
	if err != nil {
		return fmt.Errorf("failed to configure ingestion: %w", err)
	}
	defer func() { _ = cleanup() }()

	watcher, err := newWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	changes, err := watcher.Watch(ctx, settings.InputRoot)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", settings.InputRoot, err)
	}

	// Initial run before waiting for changes
	cmd.Printf("Ingesting reports from %s...\n", settings.InputRoot)
	if run, runErr := ingestWithProgress(ctx, cmd, orch); runErr != nil {
		logger.Error("ingestion failed: %v", runErr)
	} else {
		printRunSummary(cmd, run)
	}

	cmd.Printf("\nWatching %s for changes...\n", settings.InputRoot)

	// Debounce timer starts stopped; a change arms it
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			cmd.Println("Stopped.")
			return nil

		case path, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("change detected: %s", path)
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(watchDebounce)
			pending = true

		case <-timer.C:
			pending = false
			cmd.Println("Change detected, re-running ingestion...")
			run, runErr := ingestWithProgress(ctx, cmd, orch)
			if runErr != nil {
				if ctx.Err() != nil {
					continue
				}
				logger.Error("ingestion failed: %v", runErr)
				continue
			}
			printRunSummary(cmd, run)
			cmd.Printf("\nWatching %s for changes...\n", settings.InputRoot)
		}
	}
}
