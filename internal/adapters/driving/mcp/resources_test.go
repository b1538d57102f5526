package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

func TestExtractFilePath(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "escaped absolute path",
			uri:      "recall://files/%2Fhome%2Fme%2Fnotes+2024.md",
			expected: "/home/me/notes 2024.md",
		},
		{
			name:     "invalid prefix",
			uri:      "file://files/%2Fa.md",
			expected: "",
		},
		{
			name:     "bad escape",
			uri:      "recall://files/%zz",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractFilePath(tt.uri))
		})
	}
}

func TestFileURI_RoundTrip(t *testing.T) {
	path := "/home/me/docs/q&a?.md"
	assert.Equal(t, path, extractFilePath(fileURI(path)))
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func newLibraryServer(t *testing.T, lib *mockLibraryService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Search: &mockSearchService{}, Library: lib})
	require.NoError(t, err)
	return server
}

func TestServer_handleFilesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns files", func(t *testing.T) {
		server := newLibraryServer(t, &mockLibraryService{files: []domain.FileSummary{
			{Path: "/home/docs/plan.md", Name: "plan.md", ChunkCount: 3},
		}})

		result, err := server.handleFilesResource(ctx, makeReadResourceRequest("recall://files"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "/home/docs/plan.md")
		assert.Contains(t, result.Contents[0].Text, `"chunks": 3`)
		assert.Contains(t, result.Contents[0].Text, "recall://files/%2Fhome%2Fdocs%2Fplan.md")
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server := newLibraryServer(t, &mockLibraryService{err: errors.New("database error")})

		_, err := server.handleFilesResource(ctx, makeReadResourceRequest("recall://files"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing files")
	})
}

func TestServer_handleStatsResource(t *testing.T) {
	server := newLibraryServer(t, &mockLibraryService{stats: &domain.StoreStats{
		FileCount: 2, ChunkCount: 7, TotalContentBytes: 900, DatabaseBytes: 4096,
	}})

	result, err := server.handleStatsResource(context.Background(), makeReadResourceRequest("recall://stats"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Contains(t, result.Contents[0].Text, `"chunks": 7`)
	assert.Contains(t, result.Contents[0].Text, `"disk_bytes": 4096`)
}

func TestServer_handleFileContentResource(t *testing.T) {
	ctx := context.Background()
	server := newLibraryServer(t, &mockLibraryService{contents: map[string]string{
		"/home/docs/plan.md": "Ship in March.",
	}})

	t.Run("returns content", func(t *testing.T) {
		req := makeReadResourceRequest(fileURI("/home/docs/plan.md"))
		result, err := server.handleFileContentResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t, "Ship in March.", result.Contents[0].Text)
	})

	t.Run("unknown path is not found", func(t *testing.T) {
		_, err := server.handleFileContentResource(ctx, makeReadResourceRequest(fileURI("/missing.md")))
		require.Error(t, err)
	})

	t.Run("invalid URI is not found", func(t *testing.T) {
		_, err := server.handleFileContentResource(ctx, makeReadResourceRequest("recall://invalid"))
		require.Error(t, err)
	})
}
