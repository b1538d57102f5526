package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// FileInfo is the subset of file stats the indexer needs.
type FileInfo struct {
	Size       int64
	ModifiedAt time.Time
	IsDir      bool
}

// FileSystem provides read-only access to file stats.
type FileSystem interface {
	// Stat returns stats for path. The error wraps fs.ErrNotExist for missing files.
	Stat(path string) (FileInfo, error)

	// Exists reports whether path exists.
	Exists(path string) bool
}

// FileClassifier decides which skip settings apply to a file.
type FileClassifier interface {
	// IsCode reports whether path is source code or vendored code.
	IsCode(path string) bool

	// IsImage reports whether path is an image.
	IsImage(path string) bool
}

// FileWalker enumerates indexable files under a set of roots.
type FileWalker interface {
	// Walk returns absolute paths of regular files, honouring ignore rules.
	Walk(ctx context.Context, roots []string) ([]string, error)
}

// FileWatcher streams debounced change batches for a set of roots.
type FileWatcher interface {
	// Watch starts watching. The channel closes when ctx is done.
	Watch(ctx context.Context, roots []string) (<-chan []domain.FileChange, error)

	Close() error
}
