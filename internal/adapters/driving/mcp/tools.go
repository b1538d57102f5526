package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find documents"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default from settings)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
	Total   int                  `json:"total"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	Path     string  `json:"path"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Language string  `json:"language,omitempty"`
	Content  string  `json:"content,omitempty"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"a question about the indexed documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string               `json:"answer"`
	Found   bool                 `json:"found"`
	Sources []SearchResultOutput `json:"sources,omitempty"`
	Queries []string             `json:"queries,omitempty"`
}

// ListFilesInput is the (empty) input schema for the list_files tool.
type ListFilesInput struct{}

// ListFilesOutput is the output schema for the list_files tool.
type ListFilesOutput struct {
	Files []FileOutput `json:"files"`
	Count int          `json:"count"`
}

// FileOutput describes one indexed file.
type FileOutput struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
	Chunks   int    `json:"chunks"`
	Bytes    int64  `json:"bytes"`
}

var (
	errAskUnavailable     = errors.New("ask is not available on this server")
	errLibraryUnavailable = errors.New("file listing is not available on this server")
)

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search indexed local documents by meaning",
	}, s.handleSearch)

	if s.ports.Ask != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question from indexed local documents, with sources",
		}, s.handleAsk)
	}

	if s.ports.Library != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_files",
			Description: "List every indexed file",
		}, s.handleListFiles)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := s.ports.SearchDefaults
	if input.Limit > 0 {
		opts.Limit = input.Limit
	}

	resp, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results: resultOutputs(resp.Results),
		Count:   len(resp.Results),
		Total:   resp.TotalMatches,
	}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Ask == nil {
		return nil, AskOutput{}, errAskUnavailable
	}

	answer, err := s.ports.Ask.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Found:   answer.Found,
		Sources: resultOutputs(answer.Sources),
		Queries: answer.Queries,
	}, nil
}

// handleListFiles handles the list_files tool invocation.
func (s *Server) handleListFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListFilesInput,
) (*mcp.CallToolResult, ListFilesOutput, error) {
	if s.ports.Library == nil {
		return nil, ListFilesOutput{}, errLibraryUnavailable
	}

	files, err := s.ports.Library.ListFiles(ctx)
	if err != nil {
		return nil, ListFilesOutput{}, err
	}

	output := ListFilesOutput{
		Files: make([]FileOutput, len(files)),
		Count: len(files),
	}
	for i, f := range files {
		output.Files[i] = FileOutput{
			Path:     f.Path,
			Name:     f.Name,
			Language: f.Language,
			Chunks:   f.ChunkCount,
			Bytes:    f.ContentBytes,
		}
	}
	return nil, output, nil
}

func resultOutputs(results []domain.SearchResult) []SearchResultOutput {
	out := make([]SearchResultOutput, len(results))
	for i := range results {
		out[i] = SearchResultOutput{
			Path:     results[i].FilePath,
			Name:     results[i].FileName,
			Score:    results[i].Score,
			Language: results[i].Language,
			Content:  results[i].Content,
		}
	}
	return out
}
