package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "recall-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func testFile(path string, size int64, modified time.Time) domain.FileInput {
	return domain.FileInput{
		Path:       path,
		Name:       filepath.Base(path),
		Language:   "en",
		ModifiedAt: modified,
		Size:       size,
	}
}

func testChunks(path string, contents ...string) []domain.ChunkRecord {
	chunks := make([]domain.ChunkRecord, len(contents))
	for i, c := range contents {
		chunks[i] = domain.ChunkRecord{
			ID:         uuid.New().String(),
			FilePath:   path,
			FileName:   filepath.Base(path),
			Content:    c,
			ChunkIndex: i,
			Language:   "en",
			Embedding:  []float32{float32(i) + 0.5, 1, -1},
		}
	}
	return chunks
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.Equal(t, DatabaseFile, filepath.Base(store.Path()))
	_, err := os.Stat(store.Path())
	require.NoError(t, err)

	var mode string
	require.NoError(t, store.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	tempDir := t.TempDir()

	first, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(tempDir)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStore_UpsertAndFetch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	modified := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)
	path := "/notes/alpha.md"
	require.NoError(t, store.UpsertFile(ctx, testFile(path, 100, modified), testChunks(path, "one", "two")))

	chunks, err := store.FetchAll(ctx, domain.ExclusionFilter{})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "one", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, "alpha.md", chunks[0].FileName)
	assert.Equal(t, []float32{0.5, 1, -1}, chunks[0].Embedding)
	assert.Equal(t, int64(100), chunks[1].FileSize)
	assert.True(t, chunks[1].ModifiedAt.Equal(modified))
	assert.False(t, chunks[1].CreatedAt.IsZero())

	meta, err := store.GetFileMetadata(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(100), meta.Size)
	assert.True(t, meta.ModifiedAt.Equal(modified))
}

func TestStore_UpsertReplacesPreviousChunkSet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	path := "/notes/beta.txt"
	require.NoError(t, store.UpsertFile(ctx, testFile(path, 10, time.Now()), testChunks(path, "a", "b", "c")))
	require.NoError(t, store.UpsertFile(ctx, testFile(path, 20, time.Now()), testChunks(path, "x")))

	chunks, err := store.GetFileChunks(ctx, path)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "x", chunks[0].Content)

	meta, err := store.GetFileMetadata(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(20), meta.Size)
}

func TestStore_UpsertFailureKeepsPreviousVersion(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	path := "/notes/gamma.txt"
	require.NoError(t, store.UpsertFile(ctx, testFile(path, 10, time.Now()), testChunks(path, "old-0", "old-1")))

	// Duplicate chunk index violates UNIQUE(file_path, chunk_index).
	bad := testChunks(path, "new-0", "new-1")
	bad[1].ChunkIndex = 0
	require.Error(t, store.UpsertFile(ctx, testFile(path, 30, time.Now()), bad))

	chunks, err := store.GetFileChunks(ctx, path)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "old-0", chunks[0].Content)
	assert.Equal(t, "old-1", chunks[1].Content)
}

func TestStore_GetFileMetadata_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetFileMetadata(context.Background(), "/missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_FetchAll_AppliesExclusions(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, p := range []string{"/p/docs/guide.md", "/p/node_modules/x/index.md", "/p/README.md", "/p/app.log"} {
		require.NoError(t, store.UpsertFile(ctx, testFile(p, 1, time.Now()), testChunks(p, "text")))
	}

	filter := domain.DefaultExclusionFilter()
	filter.Extensions = []string{"log"}

	chunks, err := store.FetchAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "/p/docs/guide.md", chunks[0].FilePath)

	// Read-time only: nothing was deleted.
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.FileCount)
}

func TestStore_MalformedEmbeddingDecodesToNil(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	path := "/notes/corrupt.md"
	require.NoError(t, store.UpsertFile(ctx, testFile(path, 5, time.Now()), testChunks(path, "fine", "broken")))
	_, err := store.db.Exec("UPDATE chunks SET embedding = ? WHERE chunk_index = 1", []byte{1, 2, 3})
	require.NoError(t, err)

	chunks, err := store.FetchAll(ctx, domain.ExclusionFilter{})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.NotNil(t, chunks[0].Embedding)
	assert.Nil(t, chunks[1].Embedding)
}

func TestStore_DeleteByPathAndClear(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.UpsertFile(ctx, testFile("/a.txt", 1, time.Now()), testChunks("/a.txt", "a")))
	require.NoError(t, store.UpsertFile(ctx, testFile("/b.txt", 1, time.Now()), testChunks("/b.txt", "b")))

	require.NoError(t, store.DeleteByPath(ctx, "/a.txt"))
	_, err := store.GetFileMetadata(ctx, "/a.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Clear(ctx))
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.ChunkCount)
}

func TestStore_StatsAndListFiles(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.UpsertFile(ctx, testFile("/z.md", 1, time.Now()), testChunks("/z.md", "hello", "wörld")))
	require.NoError(t, store.UpsertFile(ctx, testFile("/a.md", 1, time.Now()), testChunks("/a.md", "abc")))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.ChunkCount)
	assert.Equal(t, 2, stats.FileCount)
	assert.Equal(t, int64(5+6+3), stats.TotalContentBytes)
	assert.Positive(t, stats.DatabaseBytes)

	files, err := store.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "/a.md", files[0].Path)
	assert.Equal(t, 1, files[0].ChunkCount)
	assert.Equal(t, "/z.md", files[1].Path)
	assert.Equal(t, 2, files[1].ChunkCount)
	assert.Equal(t, int64(11), files[1].ContentBytes)
	assert.NotEmpty(t, files[1].MinChunkID)
}

func TestStore_ListFilesDominantLanguage(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	mixed := testChunks("/mixed.md", "one", "two", "three")
	mixed[2].Language = domain.UndeterminedLanguage
	require.NoError(t, store.UpsertFile(ctx, testFile("/mixed.md", 1, time.Now()), mixed))

	german := testChunks("/german.md", "eins", "zwei", "drei")
	german[1].Language = "de"
	german[2].Language = "de"
	require.NoError(t, store.UpsertFile(ctx, testFile("/german.md", 1, time.Now()), german))

	unknown := testChunks("/unknown.md", "?")
	unknown[0].Language = domain.UndeterminedLanguage
	require.NoError(t, store.UpsertFile(ctx, testFile("/unknown.md", 1, time.Now()), unknown))

	files, err := store.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "de", files[0].Language)
	assert.Equal(t, "en", files[1].Language)
	assert.Equal(t, domain.UndeterminedLanguage, files[2].Language)
}

func TestStore_ConcurrentReadersDuringWrites(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				p := fmt.Sprintf("/w%d/file%d.txt", w, i)
				assert.NoError(t, store.UpsertFile(ctx, testFile(p, 1, time.Now()), testChunks(p, "x", "y")))
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				_, err := store.FetchAll(ctx, domain.ExclusionFilter{})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.FileCount)
	assert.Equal(t, 40, stats.ChunkCount)
}
