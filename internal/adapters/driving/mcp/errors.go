// Package mcp provides an MCP (Model Context Protocol) server adapter for recall.
// It lets local AI assistants search, list and question the indexed files.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
