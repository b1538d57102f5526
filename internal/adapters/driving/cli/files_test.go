package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFilesCmd_Table(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := runRoot(t, "files")

	require.NoError(t, err)
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "/notes/go.md")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "512 B")
}

func TestFilesCmd_Empty(t *testing.T) {
	cleanup, ts := setupTestServicesWith()
	defer cleanup()
	ts.library.files = nil

	out, err := runRoot(t, "files")

	require.NoError(t, err)
	assert.Contains(t, out, "No files indexed.")
}

func TestFilesCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { filesOutput = outputTable }()

	out, err := runRoot(t, "files", "-o", "json")
	require.NoError(t, err)

	var entries []fileEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, 5, entries[1].Chunks)
}

func TestFilesCmd_YAML(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { filesOutput = outputTable }()

	out, err := runRoot(t, "files", "--output", "yaml")
	require.NoError(t, err)

	var entries []fileEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "/notes/rust.md", entries[1].Path)
	assert.Contains(t, out, "- path: /notes/go.md")
}

func TestFilesCmd_UnknownFormat(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { filesOutput = outputTable }()

	_, err := runRoot(t, "files", "-o", "xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "xml"`)
}

func TestFilesCmd_ServiceError(t *testing.T) {
	cleanup, ts := setupTestServicesWith()
	defer cleanup()
	ts.library.err = errBoom

	_, err := runRoot(t, "files")

	assert.ErrorIs(t, err, errBoom)
}

func TestStatsCmd_Table(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := runRoot(t, "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Files:    2")
	assert.Contains(t, out, "Chunks:   7")
	assert.Contains(t, out, "Content:  2.5 KiB")
	assert.Contains(t, out, "Database: 1.0 MiB")
}

func TestStatsCmd_YAML(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { statsOutput = outputTable }()

	out, err := runRoot(t, "stats", "-o", "yaml")
	require.NoError(t, err)

	var got statsEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, statsEntry{Files: 2, Chunks: 7, ContentBytes: 2560, DatabaseBytes: 1 << 20}, got)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 30, "5.0 GiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}
