package domain

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// MinScore is the relevance floor; chunks at or below it are discarded.
	// Zero selects DefaultMinScore.
	MinScore float64

	// Exclusions filters stored chunks at read time.
	Exclusions ExclusionFilter
}

const (
	// DefaultSearchLimit is used when SearchOptions.Limit is not positive.
	DefaultSearchLimit = 10

	// DefaultMinScore is the relevance floor applied to raw similarity.
	DefaultMinScore = 0.1
)

// Confidence bands used by planning and synthesis.
const (
	// HighConfidence ends the search loop early and marks a result as strong evidence.
	HighConfidence = 0.7

	// RelevanceGate is the minimum score any result must reach before an
	// answer is synthesised.
	RelevanceGate = 0.5
)

// SearchResult represents one file in a ranked result set.
// A result set never holds two results with the same FilePath.
type SearchResult struct {
	FilePath string
	FileName string

	// Content is the best-scoring chunk for the file.
	Content string

	// ChunkIndex is the index of the representative chunk.
	ChunkIndex int

	Language string

	// Score is the per-file maximum after re-ranking, used for ordering.
	Score float64

	// AverageScore is the mean over the file's matching chunks.
	AverageScore float64

	// MaxRawScore is the best cosine similarity before any boost.
	MaxRawScore float64

	// ChunkCount is the number of chunks stored for the file.
	ChunkCount int
}

// SearchResponse is a ranked, truncated result set.
type SearchResponse struct {
	Results []SearchResult

	// TotalMatches is the number of distinct matching files before truncation.
	TotalMatches int
}

// LiveResult is the outcome of one search-as-you-type query.
type LiveResult struct {
	Query    string
	Response *SearchResponse
	Err      error
}
