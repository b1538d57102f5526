package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// IndexProgress is called after each file in a run.
type IndexProgress func(path string, state domain.FileState, processed, total int)

// IndexOptions configures an indexing run.
type IndexOptions struct {
	// Progress, if set, is called after each file.
	Progress IndexProgress

	// SkipOrphanSweep disables removal of chunks for files missing from disk.
	SkipOrphanSweep bool
}

// IndexService keeps the document store in step with files on disk.
type IndexService interface {
	// IndexFiles indexes each path. Per-file failures are collected in the report.
	// Cancellation stops the run and returns the partial report with a nil error.
	IndexFiles(ctx context.Context, paths []string, opts IndexOptions) (*domain.IndexReport, error)

	// IndexFile indexes a single path and returns its resulting state.
	IndexFile(ctx context.Context, path string) (domain.FileState, error)

	// CleanOrphans deletes chunks of files no longer on disk and returns their paths.
	CleanOrphans(ctx context.Context) ([]string, error)

	// RemoveFile deletes every chunk for path.
	RemoveFile(ctx context.Context, path string) error

	// Clear deletes every chunk.
	Clear(ctx context.Context) error

	// Status returns the current run state.
	Status() domain.IndexStatus
}

// LibraryService exposes the store for operations that need no provider.
type LibraryService interface {
	ListFiles(ctx context.Context) ([]domain.FileSummary, error)
	Stats(ctx context.Context) (*domain.StoreStats, error)

	// Content returns the reassembled text of an indexed file.
	Content(ctx context.Context, path string) (string, error)

	// Open launches the system viewer for an indexed file.
	Open(ctx context.Context, path string) error

	// RemoveFile deletes every chunk for path. It needs no provider.
	RemoveFile(ctx context.Context, path string) error

	// Clear deletes every stored chunk. It needs no provider.
	Clear(ctx context.Context) error
}

// SyncService keeps the index in step with directory roots.
type SyncService interface {
	// Sync walks roots, indexes what it finds and sweeps orphans.
	Sync(ctx context.Context, roots []string, progress IndexProgress) (*domain.IndexReport, error)

	// Watch applies file changes under roots until ctx is done or Stop is called.
	// A positive rescan interval also runs periodic full syncs. Each pass is
	// passed to onReport when set.
	Watch(ctx context.Context, roots []string, rescan time.Duration, onReport func(*domain.IndexReport)) error

	// Stop ends a running Watch.
	Stop()
}
