package driven

import (
	"context"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// DocumentStore persists chunk records and is their only owner.
// Implementations must allow one writer alongside concurrent readers.
type DocumentStore interface {
	// UpsertFile replaces every chunk stored for file.Path with chunks.
	// The delete and insert happen in one transaction.
	UpsertFile(ctx context.Context, file domain.FileInput, chunks []domain.ChunkRecord) error

	// GetFileMetadata returns the stored change-detection snapshot.
	// Returns domain.ErrNotFound if the path has no chunks.
	GetFileMetadata(ctx context.Context, path string) (*domain.FileMetadata, error)

	// FetchAll returns every chunk not excluded by filter.
	// The returned slice is a snapshot owned by the caller.
	FetchAll(ctx context.Context, filter domain.ExclusionFilter) ([]domain.ChunkRecord, error)

	// GetFileChunks returns the chunks of one file ordered by chunk index.
	GetFileChunks(ctx context.Context, path string) ([]domain.ChunkRecord, error)

	// DeleteByPath removes every chunk for path.
	DeleteByPath(ctx context.Context, path string) error

	// Stats returns aggregate counts.
	Stats(ctx context.Context) (*domain.StoreStats, error)

	// ListFiles returns per-file aggregates ordered by path.
	ListFiles(ctx context.Context) ([]domain.FileSummary, error)

	// Clear removes every chunk.
	Clear(ctx context.Context) error
}
