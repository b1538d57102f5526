// Package plaintext extracts text files and source code as-is.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "plaintext"
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{
		"txt", "text", "rst", "org", "tex", "csv", "tsv",
		"json", "yaml", "yml", "toml", "ini", "xml", "svg",
		"go", "py", "rs", "java", "kt", "c", "h", "cpp", "hpp", "cs",
		"rb", "php", "swift", "scala", "sh", "bash", "zsh", "sql",
		"js", "jsx", "ts", "tsx", "css", "scss", "lua", "r",
		"html", "htm", "md",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback extractor
}

// Extract reads the file and rejects binary content.
func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Decode(data)
}

// Decode validates data as UTF-8 text, dropping a leading byte order mark.
func Decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return "", fmt.Errorf("%w: binary content", domain.ErrExtractionFailed)
	}
	return string(data), nil
}
