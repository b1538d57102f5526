package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
)

var indexCmd = &cobra.Command{
	Use:   "index [paths...]",
	Short: "Index files and directories",
	Long: `Walks the given files and directories and indexes every supported file.
Unchanged files are skipped, changed files are re-embedded, and files that
no longer exist are removed from the index.

Directories honour .gitignore and skip hidden entries. Interrupting the run
keeps every file indexed so far.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

var removeCmd = &cobra.Command{
	Use:   "remove [path]",
	Short: "Remove a file from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete everything from the index",
	Long:  `Deletes all indexed chunks. Files on disk are not touched.`,
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(clearCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return unavailable("index")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var progress driving.IndexProgress
	if isTerminal(out) {
		progress = func(path string, _ domain.FileState, processed, total int) {
			fmt.Fprintf(out, "\r\033[KIndexing [%d/%d] %s", processed, total, domain.DisplayName(path))
		}
	}

	report, err := syncService.Sync(ctx, args, progress)
	if progress != nil {
		fmt.Fprint(out, "\r\033[K")
	}
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IndexReport) {
	cmd.Printf("Indexed %d new, %d changed, %d unchanged, %d skipped (%d chunks).\n",
		report.Indexed, report.Reindexed, report.Unchanged, report.Skipped, report.Chunks)
	if len(report.Cleaned) > 0 {
		cmd.Printf("Removed %d missing files.\n", len(report.Cleaned))
	}
	for _, e := range report.Errors {
		cmd.Printf("  ! %s: %s (%s)\n", e.Name, e.Message, e.Kind)
	}
	if report.Halted {
		cmd.Println("Stopped early: the index reached its size limit.")
	}
	if report.Cancelled {
		cmd.Println("Cancelled.")
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return unavailable("library")
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := libraryService.RemoveFile(cmd.Context(), path); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}

	cmd.Printf("Removed %s from the index.\n", path)
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return unavailable("library")
	}

	if !clearYes {
		cmd.Print("Delete every indexed chunk? [y/N]: ")
		answer := readLine(cmdReader(cmd))
		if answer != "y" && answer != "Y" && answer != "yes" {
			cmd.Println("Cancelled.")
			return nil
		}
	}

	if err := libraryService.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
