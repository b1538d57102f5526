package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// ChunkRecord is a persisted segment of a source file together with its embedding.
// The pair (FilePath, ChunkIndex) is unique, and after a successful index pass
// a file's chunks form the dense sequence 0..N-1.
type ChunkRecord struct {
	// ID is the unique identifier for the chunk.
	ID string

	// FilePath is the absolute path of the source file.
	FilePath string

	// FileName is the display name of the source file.
	FileName string

	// Content is the chunk text.
	Content string

	// ChunkIndex is the 0-based position within the file.
	ChunkIndex int

	// Language is the detected language tag (ISO 639-1, or "und").
	Language string

	// Embedding is the dense vector for the chunk text.
	Embedding []float32

	// CreatedAt is when the chunk was written.
	CreatedAt time.Time

	// ModifiedAt is the source file modification time at indexing.
	ModifiedAt time.Time

	// FileSize is the source file size in bytes at indexing.
	FileSize int64
}

// TextChunk is the chunker output before embedding.
type TextChunk struct {
	Text  string
	Index int
}

// FileInput describes a file whose chunks are being written.
type FileInput struct {
	Path       string
	Name       string
	Language   string
	ModifiedAt time.Time
	Size       int64
}

// FileMetadata is the stored snapshot used for change detection.
type FileMetadata struct {
	ModifiedAt time.Time
	Size       int64
}

// modifiedTolerance absorbs timestamp precision lost by filesystems and storage.
const modifiedTolerance = time.Second

// Unchanged reports whether the current file stats match the stored snapshot.
// Sizes must match exactly; timestamps may differ by less than one second.
func (m FileMetadata) Unchanged(modifiedAt time.Time, size int64) bool {
	if m.Size != size {
		return false
	}
	delta := m.ModifiedAt.Sub(modifiedAt)
	if delta < 0 {
		delta = -delta
	}
	return delta < modifiedTolerance
}

// FileSummary is a per-file aggregate derived from stored chunks.
type FileSummary struct {
	// MinChunkID is the smallest chunk ID for the file.
	MinChunkID string

	Path         string
	Name         string
	Language     string
	ChunkCount   int
	ContentBytes int64
}

// StoreStats summarises the document store.
type StoreStats struct {
	ChunkCount        int
	FileCount         int
	TotalContentBytes int64

	// DatabaseBytes is the on-disk size, zero for in-memory stores.
	DatabaseBytes int64
}

// DisplayName returns the name shown for a file path.
func DisplayName(path string) string {
	return filepath.Base(path)
}

// Extension returns the lowercased extension of path without the dot.
func Extension(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// UndeterminedLanguage is the tag used when detection is not reliable.
const UndeterminedLanguage = "und"

// DominantLanguage returns the most frequent determined tag in langs.
// Ties go to the alphabetically first tag. It returns UndeterminedLanguage
// when no tag is determined.
func DominantLanguage(langs []string) string {
	counts := make(map[string]int, len(langs))
	for _, l := range langs {
		if l == "" || l == UndeterminedLanguage {
			continue
		}
		counts[l]++
	}

	best, bestCount := UndeterminedLanguage, 0
	for l, n := range counts {
		if n > bestCount || (n == bestCount && l < best) {
			best, bestCount = l, n
		}
	}
	return best
}

// Embedding is a provider result for one text.
type Embedding struct {
	Vector []float32

	// Language is an ISO 639-1 tag, or UndeterminedLanguage.
	Language string
}
