package markdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Metadata(t *testing.T) {
	e := New()
	assert.Equal(t, "markdown", e.Name())
	assert.Equal(t, 50, e.Priority())
	assert.ElementsMatch(t, []string{"md", "markdown", "mdx"}, e.SupportedExtensions())
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "heading", input: "# Title\n\nBody text.", want: "Title\n\nBody text."},
		{name: "link keeps text", input: "See [the docs](https://x.y/z).", want: "See the docs."},
		{name: "image keeps alt", input: "![diagram](a.png)", want: "diagram"},
		{name: "emphasis", input: "This is **bold** and *italic*.", want: "This is bold and italic."},
		{name: "inline code", input: "Call `Run()` first.", want: "Call Run() first."},
		{name: "snake case survives", input: "Set max_file_size here.", want: "Set max_file_size here."},
		{name: "lists", input: "- one\n* two\n1. three", want: "one\ntwo\nthree"},
		{name: "blockquote", input: "> quoted", want: "quoted"},
		{name: "front matter", input: "---\ntitle: x\n---\nBody.", want: "Body."},
		{name: "code fence keeps body", input: "```go\nfunc main() {}\n```", want: "func main() {}"},
		{name: "crlf", input: "a\r\n\r\n\r\n\r\nb", want: "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Strip(tt.input))
		})
	}
}

func TestExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guide.md")
	require.NoError(t, os.WriteFile(path, []byte("# Setup\n\nInstall with **go install**."), 0o600))

	text, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Setup\n\nInstall with go install.", text)
}
