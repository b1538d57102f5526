package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// Output formats for list commands.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var (
	filesOutput string
	statsOutput string
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed files",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	filesCmd.Flags().StringVarP(&filesOutput, "output", "o", outputTable, "output format: table, json or yaml")
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", outputTable, "output format: table, json or yaml")
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(statsCmd)
}

type fileEntry struct {
	Path     string `json:"path" yaml:"path"`
	Name     string `json:"name" yaml:"name"`
	Language string `json:"language" yaml:"language"`
	Chunks   int    `json:"chunks" yaml:"chunks"`
	Bytes    int64  `json:"bytes" yaml:"bytes"`
}

type statsEntry struct {
	Files         int   `json:"files" yaml:"files"`
	Chunks        int   `json:"chunks" yaml:"chunks"`
	ContentBytes  int64 `json:"content_bytes" yaml:"content_bytes"`
	DatabaseBytes int64 `json:"database_bytes" yaml:"database_bytes"`
}

func runFiles(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return unavailable("library")
	}

	files, err := libraryService.ListFiles(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	entries := make([]fileEntry, 0, len(files))
	for i := range files {
		f := &files[i]
		entries = append(entries, fileEntry{
			Path:     f.Path,
			Name:     f.Name,
			Language: f.Language,
			Chunks:   f.ChunkCount,
			Bytes:    f.ContentBytes,
		})
	}

	switch filesOutput {
	case outputJSON, outputYAML:
		return encode(cmd.OutOrStdout(), filesOutput, entries)
	case outputTable:
	default:
		return fmt.Errorf("unknown output format %q", filesOutput)
	}

	if len(entries) == 0 {
		cmd.Println("No files indexed.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tLANG\tCHUNKS\tSIZE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.Path, e.Language, e.Chunks, formatBytes(e.Bytes))
	}
	return w.Flush()
}

func runStats(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return unavailable("library")
	}

	stats, err := libraryService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	entry := statsEntry{
		Files:         stats.FileCount,
		Chunks:        stats.ChunkCount,
		ContentBytes:  stats.TotalContentBytes,
		DatabaseBytes: stats.DatabaseBytes,
	}

	switch statsOutput {
	case outputJSON, outputYAML:
		return encode(cmd.OutOrStdout(), statsOutput, entry)
	case outputTable:
		printStats(cmd, stats)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", statsOutput)
	}
}

func printStats(cmd *cobra.Command, stats *domain.StoreStats) {
	cmd.Printf("Files:    %d\n", stats.FileCount)
	cmd.Printf("Chunks:   %d\n", stats.ChunkCount)
	cmd.Printf("Content:  %s\n", formatBytes(stats.TotalContentBytes))
	if stats.DatabaseBytes > 0 {
		cmd.Printf("Database: %s\n", formatBytes(stats.DatabaseBytes))
	}
}

func encode(w io.Writer, format string, v any) error {
	if format == outputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
