package services

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService with fixed vectors.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	batchErr error
	embeds   []string
	batches  int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{vectors: make(map[string][]float32), fallback: []float32{1, 0, 0}}
}

func (m *mockEmbedder) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return m.fallback
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeds = append(m.embeds, text)
	if err := ctx.Err(); err != nil {
		return domain.Embedding{}, err
	}
	if m.err != nil {
		return domain.Embedding{}, m.err
	}
	if strings.TrimSpace(text) == "" {
		return domain.Embedding{}, domain.ErrEmptyInput
	}
	return domain.Embedding{Vector: m.vector(text), Language: "en"}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) embedCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.embeds...)
}

func (m *mockEmbedder) batchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

func (m *mockEmbedder) Dimensions() int { return 3 }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.err }
func (m *mockEmbedder) Close() error { return nil }

// stubExtractors implements driven.ExtractorRegistry from a path->text map.
type stubExtractors struct {
	texts map[string]string
	errs  map[string]error

	// started and release, when set, block Extract until release is closed.
	started chan struct{}
	release chan struct{}
}

func (s *stubExtractors) Extract(ctx context.Context, path string) (string, error) {
	if s.started != nil {
		s.started <- struct{}{}
		select {
		case <-s.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err, ok := s.errs[path]; ok {
		return "", err
	}
	text, ok := s.texts[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, path)
	}
	return text, nil
}

func (s *stubExtractors) Supports(path string) bool {
	_, ok := s.texts[path]
	return ok
}

// fakeFS implements driven.FileSystem over an in-memory table of stats.
type fakeFS struct {
	mu    sync.Mutex
	files map[string]driven.FileInfo
}

func newFakeFS() *fakeFS {
	return &fakeFS{files: make(map[string]driven.FileInfo)}
}

func (f *fakeFS) put(path string, info driven.FileInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = info
}

func (f *fakeFS) remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
}

func (f *fakeFS) Stat(path string) (driven.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.files[path]
	if !ok {
		return driven.FileInfo{}, fmt.Errorf("stat %s: %w", path, fs.ErrNotExist)
	}
	return info, nil
}

func (f *fakeFS) Exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok
}

// extClassifier implements driven.FileClassifier by extension.
type extClassifier struct{}

func (extClassifier) IsCode(path string) bool {
	switch domain.Extension(path) {
	case "go", "py", "js":
		return true
	}
	return false
}

func (extClassifier) IsImage(path string) bool {
	switch domain.Extension(path) {
	case "png", "jpg":
		return true
	}
	return false
}

// fixedLanguage implements driven.LanguageDetector.
type fixedLanguage string

func (l fixedLanguage) Detect(string) string { return string(l) }

// staticSettings implements SettingsReader.
type staticSettings struct {
	settings domain.Settings
	err      error
}

func (s *staticSettings) Get() (*domain.Settings, error) {
	if s.err != nil {
		return nil, s.err
	}
	copied := s.settings
	return &copied, nil
}

func testSettings() *staticSettings {
	return &staticSettings{settings: domain.DefaultSettings()}
}

// mockLLM implements driven.StreamingLLMService.
type mockLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	messages [][]driven.ChatMessage
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return m.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: prompt}}, driven.ChatOptions{})
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, messages)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) ChatStream(
	ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions, onDelta func(string),
) (string, error) {
	reply, err := m.Chat(ctx, messages, opts)
	if err != nil {
		return "", err
	}
	for _, word := range strings.SplitAfter(reply, " ") {
		onDelta(word)
	}
	return reply, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return m.err }
func (m *mockLLM) Close() error { return nil }

// staticPrompts implements driven.PromptStore.
type staticPrompts map[string]string

func (p staticPrompts) Load(name string) (string, error) {
	if t, ok := p[name]; ok {
		return t, nil
	}
	return "", domain.ErrNotFound
}
