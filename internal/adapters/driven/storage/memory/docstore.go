package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Chunk sets are replaced whole, so readers see either the old or the new version.
type DocumentStore struct {
	mu    sync.RWMutex
	files map[string][]domain.ChunkRecord

	// SizeBytes, if set, is reported as StoreStats.DatabaseBytes.
	SizeBytes func() int64
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		files: make(map[string][]domain.ChunkRecord),
	}
}

// UpsertFile replaces the chunk set for file.Path.
func (s *DocumentStore) UpsertFile(_ context.Context, file domain.FileInput, chunks []domain.ChunkRecord) error {
	copied := make([]domain.ChunkRecord, len(chunks))
	for i, c := range chunks {
		c.FilePath = file.Path
		c.FileName = file.Name
		c.ModifiedAt = file.ModifiedAt
		c.FileSize = file.Size
		if c.Language == "" {
			c.Language = file.Language
		}
		c.Embedding = append([]float32(nil), c.Embedding...)
		copied[i] = c
	}
	sort.Slice(copied, func(i, j int) bool { return copied[i].ChunkIndex < copied[j].ChunkIndex })

	for i := 1; i < len(copied); i++ {
		if copied[i].ChunkIndex == copied[i-1].ChunkIndex {
			return domain.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(copied) == 0 {
		delete(s.files, file.Path)
		return nil
	}
	s.files[file.Path] = copied
	return nil
}

// GetFileMetadata returns the stored snapshot for path.
func (s *DocumentStore) GetFileMetadata(_ context.Context, path string) (*domain.FileMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.files[path]
	if !ok || len(chunks) == 0 {
		return nil, domain.ErrNotFound
	}
	return &domain.FileMetadata{ModifiedAt: chunks[0].ModifiedAt, Size: chunks[0].FileSize}, nil
}

// FetchAll returns every chunk not excluded by filter, ordered by path then index.
func (s *DocumentStore) FetchAll(_ context.Context, filter domain.ExclusionFilter) ([]domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ChunkRecord
	for _, path := range s.sortedPaths() {
		if filter.Excludes(path) {
			continue
		}
		out = append(out, s.files[path]...)
	}
	return out, nil
}

// GetFileChunks returns the chunks of path ordered by chunk index.
func (s *DocumentStore) GetFileChunks(_ context.Context, path string) ([]domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ChunkRecord(nil), s.files[path]...), nil
}

// DeleteByPath removes every chunk for path.
func (s *DocumentStore) DeleteByPath(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

// Clear removes every chunk.
func (s *DocumentStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string][]domain.ChunkRecord)
	return nil
}

// Stats returns aggregate counts.
func (s *DocumentStore) Stats(_ context.Context) (*domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.StoreStats{FileCount: len(s.files)}
	for _, chunks := range s.files {
		stats.ChunkCount += len(chunks)
		for _, c := range chunks {
			stats.TotalContentBytes += int64(len(c.Content))
		}
	}
	if s.SizeBytes != nil {
		stats.DatabaseBytes = s.SizeBytes()
	}
	return stats, nil
}

// ListFiles returns per-file aggregates ordered by path.
func (s *DocumentStore) ListFiles(_ context.Context) ([]domain.FileSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := s.sortedPaths()
	files := make([]domain.FileSummary, 0, len(paths))
	for _, path := range paths {
		chunks := s.files[path]
		summary := domain.FileSummary{
			Path:       path,
			Name:       chunks[0].FileName,
			ChunkCount: len(chunks),
			MinChunkID: chunks[0].ID,
		}
		langs := make([]string, 0, len(chunks))
		for _, c := range chunks {
			langs = append(langs, c.Language)
			summary.ContentBytes += int64(len(c.Content))
			if c.ID < summary.MinChunkID {
				summary.MinChunkID = c.ID
			}
		}
		summary.Language = domain.DominantLanguage(langs)
		files = append(files, summary)
	}
	return files, nil
}

func (s *DocumentStore) sortedPaths() []string {
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
