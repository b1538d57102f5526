package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for recall resources.
	uriScheme = "recall://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Library == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "files",
		Name:        "files",
		Description: "List of all indexed files",
		MIMEType:    "application/json",
	}, s.handleFilesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Index size and counts",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	// Paths are query-escaped into the final segment.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "files/{path}",
		Name:        "file-content",
		Description: "Indexed text of a specific file",
		MIMEType:    "text/plain",
	}, s.handleFileContentResource)
}

// handleFilesResource returns every indexed file.
func (s *Server) handleFilesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	files, err := s.ports.Library.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	type fileInfo struct {
		Path   string `json:"path"`
		Name   string `json:"name"`
		Chunks int    `json:"chunks"`
		URI    string `json:"uri"`
	}

	infos := make([]fileInfo, len(files))
	for i, f := range files {
		infos[i] = fileInfo{
			Path:   f.Path,
			Name:   f.Name,
			Chunks: f.ChunkCount,
			URI:    fileURI(f.Path),
		}
	}

	return jsonResult(req.Params.URI, infos)
}

// handleStatsResource returns store totals.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Library.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	return jsonResult(req.Params.URI, map[string]any{
		"files":         stats.FileCount,
		"chunks":        stats.ChunkCount,
		"content_bytes": stats.TotalContentBytes,
		"disk_bytes":    stats.DatabaseBytes,
	})
}

// handleFileContentResource returns the reassembled text of one file.
func (s *Server) handleFileContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	path := extractFilePath(req.Params.URI)
	if path == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	content, err := s.ports.Library.Content(ctx, path)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading file content: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     content,
		}},
	}, nil
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// fileURI builds the content URI for an indexed path.
func fileURI(path string) string {
	return uriScheme + "files/" + url.QueryEscape(path)
}

// extractFilePath recovers the path from a URI like recall://files/{escaped path}.
func extractFilePath(uri string) string {
	const prefix = uriScheme + "files/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	path, err := url.QueryUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil {
		return ""
	}
	return path
}
