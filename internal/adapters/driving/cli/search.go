package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/logger"
)

var (
	searchLimit    int
	searchMinScore float64
	searchJSON     bool
)

// snippetLength bounds the preview printed under each result.
const snippetLength = 160

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed files",
	Long: `Embeds the query and ranks indexed files by semantic similarity.
Each file appears once, represented by its best matching chunk. Filename
and content keyword matches boost the raw similarity score.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "relevance floor (0 uses the default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// configuredSearch returns the saved search settings, or zero options (the
// service defaults) when settings cannot be read.
func configuredSearch() domain.SearchOptions {
	if settingsService == nil {
		return domain.SearchOptions{}
	}
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("search settings unavailable: %v", err)
		return domain.SearchOptions{}
	}
	return domain.SearchOptions{Limit: settings.Search.Limit, MinScore: settings.Search.MinScore}
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return unavailable("search")
	}

	opts := configuredSearch()
	opts.Exclusions = domain.DefaultExclusionFilter()
	if cmd.Flags().Changed("limit") {
		opts.Limit = searchLimit
	}
	if cmd.Flags().Changed("min-score") {
		opts.MinScore = searchMinScore
	}

	resp, err := searchService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}
	outputSearchTable(cmd, resp)
	return nil
}

type searchResultJSON struct {
	Path       string  `json:"path"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	RawScore   float64 `json:"raw_score"`
	ChunkIndex int     `json:"chunk_index"`
	Language   string  `json:"language,omitempty"`
	Snippet    string  `json:"snippet"`
}

type searchResponseJSON struct {
	Results      []searchResultJSON `json:"results"`
	TotalMatches int                `json:"total_matches"`
}

func outputSearchJSON(cmd *cobra.Command, resp *domain.SearchResponse) error {
	out := searchResponseJSON{Results: []searchResultJSON{}, TotalMatches: resp.TotalMatches}
	for i := range resp.Results {
		r := &resp.Results[i]
		out.Results = append(out.Results, searchResultJSON{
			Path:       r.FilePath,
			Name:       r.FileName,
			Score:      r.Score,
			RawScore:   r.MaxRawScore,
			ChunkIndex: r.ChunkIndex,
			Language:   r.Language,
			Snippet:    snippet(r.Content, snippetLength),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Printf("Results (%d of %d files):\n", len(resp.Results), resp.TotalMatches)
	cmd.Println()
	for i := range resp.Results {
		r := &resp.Results[i]
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, r.FileName, r.Score)
		cmd.Printf("      %s\n", r.FilePath)
		if s := snippet(r.Content, snippetLength); s != "" {
			cmd.Printf("      %s\n", s)
		}
		cmd.Println()
	}
}

// snippet collapses whitespace and truncates to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n-3]) + "..."
}
