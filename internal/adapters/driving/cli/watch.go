package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

var (
	watchRescan  time.Duration
	watchInitial bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Keep the index in step with directories",
	Long: `Indexes the given directories, then watches them and re-indexes files as
they are created, changed or deleted. Press Ctrl+C to stop.

Use --rescan to also run a full scan on an interval, which catches changes
made while recall was not running.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchRescan, "rescan", 0, "interval between full scans (0 disables)")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", true, "index the directories before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return unavailable("index")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchInitial {
		report, err := syncService.Sync(ctx, args, nil)
		if err != nil {
			return fmt.Errorf("index failed: %w", err)
		}
		printReport(cmd, report)
	}

	cmd.Printf("Watching %d director(ies). Press Ctrl+C to stop.\n", len(args))
	err := syncService.Watch(ctx, args, watchRescan, func(report *domain.IndexReport) {
		cmd.Printf("[%s] ", time.Now().Format(time.TimeOnly))
		printReport(cmd, report)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Println("Stopped.")
	return nil
}
