package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestConfigStore_PersistsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("index.chunk_size", 256))
	require.NoError(t, store.Set("index.skip_images", false))
	require.NoError(t, store.Set("search.min_score", 0.2))
	require.NoError(t, store.Set("llm.provider", "ollama"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[index]")
	assert.Contains(t, string(raw), "chunk_size = 256")
	assert.Contains(t, string(raw), "[llm]")

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 256, reloaded.GetInt("index.chunk_size"))
	assert.Equal(t, int64(256), reloaded.GetInt64("index.chunk_size"))
	assert.InDelta(t, 0.2, reloaded.GetFloat("search.min_score"), 1e-9)
	assert.False(t, reloaded.GetBool("index.skip_images"))
	assert.Equal(t, "ollama", reloaded.GetString("llm.provider"))
	assert.Equal(t, []string{"index.chunk_size", "index.skip_images", "llm.provider", "search.min_score"}, reloaded.Keys())
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[index]
max_file_size_bytes = 1048576
skip_code_files = true

[search]
min_score = 0
exclude_extensions = ["log", "tmp"]
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, int64(1048576), store.GetInt64("index.max_file_size_bytes"))
	assert.True(t, store.GetBool("index.skip_code_files"))
	assert.Zero(t, store.GetFloat("search.min_score"))
	assert.Equal(t, []string{"log", "tmp"}, store.GetStringSlice("search.exclude_extensions"))
}

func TestConfigStore_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte("[index\nbroken"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_WrongTypesYieldZero(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "text"))

	assert.Zero(t, store.GetInt("k"))
	assert.Zero(t, store.GetFloat("k"))
	assert.False(t, store.GetBool("k"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestFlattenAndNest(t *testing.T) {
	flat := map[string]any{"a.b.c": int64(1), "a.d": "x", "e": true}

	nested := nestMap(flat)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": map[string]any{"c": int64(1)}, "d": "x"},
		"e": true,
	}, nested)
	assert.Equal(t, flat, flattenMap(nested, ""))
}
