package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recall-cli/internal/logger"
	"github.com/custodia-labs/recall-cli/internal/vector"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// fileNameBoost applies when the query is a substring of the file name.
const fileNameBoost = 1.5

// maxScore caps adjusted scores.
const maxScore = 1.0

// SearchService ranks stored chunks against a query embedding and
// returns at most one result per file.
type SearchService struct {
	docStore         driven.DocumentStore
	embeddingService driven.EmbeddingService
	reranker         Reranker
	exclusions       domain.ExclusionFilter
}

// NewSearchService creates a new search service. exclusions is applied
// when a search does not supply its own filter.
func NewSearchService(
	docStore driven.DocumentStore,
	embeddingService driven.EmbeddingService,
	exclusions domain.ExclusionFilter,
) *SearchService {
	return &SearchService{
		docStore:         docStore,
		embeddingService: embeddingService,
		exclusions:       exclusions,
	}
}

// fileMatches accumulates scores for one file during a search.
type fileMatches struct {
	best      domain.ChunkRecord
	bestScore float64
	maxRaw    float64
	sum       float64
	matches   int
	chunks    int
}

// Search embeds query, scores every eligible chunk, and ranks files by
// their best adjusted chunk score. Ties are broken by path.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	logger.Section("Search Execution")
	defer logger.Timed("search")()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyInput
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	floor := opts.MinScore
	if floor <= 0 {
		floor = domain.DefaultMinScore
	}
	filter := opts.Exclusions
	if filter.IsZero() {
		filter = s.exclusions
	}
	logger.Debug("Query: %q, limit: %d, floor: %.2f", query, limit, floor)

	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := s.docStore.FetchAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fetch chunks: %w", err)
	}
	logger.Debug("Scoring %d chunks", len(chunks))

	lowerQuery := strings.ToLower(query)
	rq := s.reranker.Query(query)
	files := make(map[string]*fileMatches)

	for i := range chunks {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		c := &chunks[i]

		fm := files[c.FilePath]
		if fm == nil {
			fm = &fileMatches{}
			files[c.FilePath] = fm
		}
		fm.chunks++

		raw := vector.CosineSimilarity(embedding.Vector, c.Embedding)
		if raw <= floor {
			continue
		}

		score := raw
		if strings.Contains(strings.ToLower(c.FileName), lowerQuery) {
			score *= fileNameBoost
		}
		score = math.Min(s.reranker.Adjust(rq, score, c.Content, c.FileName), maxScore)

		fm.matches++
		fm.sum += score
		fm.maxRaw = math.Max(fm.maxRaw, raw)
		if fm.matches == 1 || score > fm.bestScore {
			fm.best = *c
			fm.bestScore = score
		}
	}

	results := make([]domain.SearchResult, 0, len(files))
	for path, fm := range files {
		if fm.matches == 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			FilePath:     path,
			FileName:     fm.best.FileName,
			Content:      fm.best.Content,
			ChunkIndex:   fm.best.ChunkIndex,
			Language:     fm.best.Language,
			Score:        fm.bestScore,
			AverageScore: fm.sum / float64(fm.matches),
			MaxRawScore:  fm.maxRaw,
			ChunkCount:   fm.chunks,
		})
	}
	SortResults(results)

	total := len(results)
	if len(results) > limit {
		results = results[:limit]
	}
	logger.Info("Search %q: %d of %d files", query, len(results), total)

	return &domain.SearchResponse{Results: results, TotalMatches: total}, nil
}

// SortResults orders results by score descending, then path ascending.
func SortResults(results []domain.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].FilePath < results[j].FilePath
	})
}
