package services

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// LibraryService reports on and prunes what has been indexed.
type LibraryService struct {
	docStore driven.DocumentStore

	// launch starts the opener command; replaced in tests.
	launch func(name string, args ...string) error
}

// NewLibraryService creates a new library service.
func NewLibraryService(docStore driven.DocumentStore) *LibraryService {
	return &LibraryService{
		docStore: docStore,
		launch: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// ListFiles returns per-file aggregates ordered by path.
func (s *LibraryService) ListFiles(ctx context.Context) ([]domain.FileSummary, error) {
	return s.docStore.ListFiles(ctx)
}

// Stats returns store totals.
func (s *LibraryService) Stats(ctx context.Context) (*domain.StoreStats, error) {
	return s.docStore.Stats(ctx)
}

// Content rebuilds the indexed text of path. Returns domain.ErrNotFound
// for paths with no chunks.
func (s *LibraryService) Content(ctx context.Context, path string) (string, error) {
	chunks, err := s.docStore.GetFileChunks(ctx, path)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	return JoinChunks(chunks), nil
}

// Open launches the default application for an indexed path.
func (s *LibraryService) Open(ctx context.Context, path string) error {
	if _, err := s.docStore.GetFileMetadata(ctx, path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	switch runtime.GOOS {
	case "darwin":
		return s.launch("open", path)
	case "linux":
		return s.launch("xdg-open", path)
	case "windows":
		return s.launch("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// RemoveFile deletes the stored chunks of path.
func (s *LibraryService) RemoveFile(ctx context.Context, path string) error {
	return s.docStore.DeleteByPath(ctx, path)
}

// Clear deletes every stored chunk.
func (s *LibraryService) Clear(ctx context.Context) error {
	return s.docStore.Clear(ctx)
}
