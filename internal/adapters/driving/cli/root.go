// Package cli provides the recall command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recall-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flag values.
var (
	verbose bool
	dataDir string
)

// Services wired by Bootstrap before a command runs.
var (
	syncService     driving.SyncService
	searchService   driving.SearchService
	askService      driving.AskService
	libraryService  driving.LibraryService
	settingsService driving.SettingsService

	// newLiveSearch builds a live search for the TUI.
	newLiveSearch func() driving.LiveSearchService

	// providerErr explains why the provider-backed services are missing.
	providerErr error
)

// Options are the global settings handed to a Bootstrap function.
type Options struct {
	DataDir string
	Verbose bool
}

// Services are the driving ports commands use. Any may be nil.
type Services struct {
	Sync     driving.SyncService
	Search   driving.SearchService
	Ask      driving.AskService
	Library  driving.LibraryService
	Settings driving.SettingsService

	NewLiveSearch func() driving.LiveSearchService

	// ProviderErr is reported by commands that need an embedding provider
	// when Search or Sync could not be built.
	ProviderErr error

	// Close releases resources after the command finishes.
	Close func()
}

// Bootstrap builds services once flags are parsed.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap    Bootstrap
	closeService func()
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Search and ask questions about your local documents",
	Long: `recall indexes local text, markdown, HTML and Word files into a local
SQLite store and answers queries by semantic similarity.

Typical use:
  recall index ~/notes
  recall search "borrow checker"
  recall ask "how does ownership work in rust?"
  recall tui`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { teardown() },
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stages to stderr")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for the index and config (default ~/.recall)")
}

// SetBootstrap registers the function that builds services.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	syncService = s.Sync
	searchService = s.Search
	askService = s.Ask
	libraryService = s.Library
	settingsService = s.Settings
	newLiveSearch = s.NewLiveSearch
	providerErr = s.ProviderErr
	closeService = s.Close
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil {
		return nil
	}

	dir, err := resolveDataDir(dataDir)
	if err != nil {
		return err
	}

	s, err := bootstrap(cmd.Context(), Options{DataDir: dir, Verbose: verbose})
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func teardown() {
	if closeService != nil {
		closeService()
		closeService = nil
	}
}

// resolveDataDir expands the --data-dir flag, defaulting to ~/.recall.
func resolveDataDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv("RECALL_HOME"); env != "" {
		return filepath.Abs(env)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".recall"), nil
}

// unavailable returns the error for a missing provider-backed service.
func unavailable(name string) error {
	if providerErr != nil {
		return providerErr
	}
	return errors.New(name + " service not configured")
}
