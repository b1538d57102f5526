package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
)

type mockSearchService struct {
	query string
	opts  domain.SearchOptions
	err   error
}

func (m *mockSearchService) Search(
	_ context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.query = query
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return &domain.SearchResponse{
		Results: []domain.SearchResult{
			{
				FilePath:    "/notes/rust.md",
				FileName:    "rust.md",
				Content:     "Ownership rules:\n  each value has   one owner.",
				Score:       0.82,
				MaxRawScore: 0.74,
				Language:    "en",
			},
			{
				FilePath: "/notes/go.md",
				FileName: "go.md",
				Content:  "Goroutines are cheap.",
				Score:    0.41,
			},
		},
		TotalMatches: 5,
	}, nil
}

type mockAskService struct {
	message  string
	streamed bool
	answer   *domain.Answer
	err      error
	reset    bool
}

func (m *mockAskService) Ask(_ context.Context, message string) (*domain.Answer, error) {
	m.message = message
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockAskService) AskStream(
	ctx context.Context, message string, onDelta func(string),
) (*domain.Answer, error) {
	m.streamed = true
	a, err := m.Ask(ctx, message)
	if err != nil {
		return nil, err
	}
	onDelta("partial ")
	onDelta("answer")
	return a, nil
}

func (m *mockAskService) History() []domain.ConversationTurn { return nil }

func (m *mockAskService) Reset() { m.reset = true }

type mockSyncService struct {
	roots    []string
	rescan   time.Duration
	report   *domain.IndexReport
	syncErr  error
	watchErr error
	batches  []*domain.IndexReport
	synced   int
	onSync   func(ctx context.Context) *domain.IndexReport
}

func (m *mockSyncService) Sync(
	ctx context.Context, roots []string, _ driving.IndexProgress,
) (*domain.IndexReport, error) {
	m.roots = roots
	m.synced++
	if m.onSync != nil {
		return m.onSync(ctx), nil
	}
	if m.syncErr != nil {
		return nil, m.syncErr
	}
	if m.report != nil {
		return m.report, nil
	}
	return &domain.IndexReport{}, nil
}

func (m *mockSyncService) Watch(
	_ context.Context, roots []string, rescan time.Duration, onReport func(*domain.IndexReport),
) error {
	m.roots = roots
	m.rescan = rescan
	for _, b := range m.batches {
		onReport(b)
	}
	if m.watchErr != nil {
		return m.watchErr
	}
	return context.Canceled
}

func (m *mockSyncService) Stop() {}

type mockLibraryService struct {
	files   []domain.FileSummary
	stats   *domain.StoreStats
	err     error
	removed []string
	cleared bool
}

func (m *mockLibraryService) ListFiles(context.Context) ([]domain.FileSummary, error) {
	return m.files, m.err
}

func (m *mockLibraryService) Stats(context.Context) (*domain.StoreStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func (m *mockLibraryService) Content(context.Context, string) (string, error) { return "", m.err }

func (m *mockLibraryService) Open(context.Context, string) error { return m.err }

func (m *mockLibraryService) RemoveFile(_ context.Context, path string) error {
	m.removed = append(m.removed, path)
	return m.err
}

func (m *mockLibraryService) Clear(context.Context) error {
	m.cleared = true
	return m.err
}

type mockSettingsService struct {
	values   map[string]string
	settings domain.Settings
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		values: map[string]string{
			"index.chunk_size":   "512",
			"search.limit":       "10",
			"embedding.provider": "ollama",
			"embedding.api_key":  "",
		},
		settings: domain.DefaultSettings(),
	}
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.Settings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetValue(key, value string) error {
	if _, ok := m.values[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mockSettingsService) Values() (map[string]string, error) {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *mockSettingsService) SetEmbeddingProvider(domain.AIProvider, string, string) error { return nil }

func (m *mockSettingsService) SetLLMProvider(domain.AIProvider, string, string) error { return nil }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }

func (m *mockSettingsService) ValidateLLMConfig() error { return nil }

var errBoom = errors.New("boom")

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	search   *mockSearchService
	ask      *mockAskService
	sync     *mockSyncService
	library  *mockLibraryService
	settings *mockSettingsService
}

// setupTestServices installs mock services and returns a cleanup function.
func setupTestServices() func() {
	cleanup, _ := setupTestServicesWith()
	return cleanup
}

func setupTestServicesWith() (func(), *testServices) {
	answer := &domain.Answer{
		Text:        "Each value has one owner.",
		Found:       true,
		Synthesiser: domain.SynthesiserHeuristic,
		Iterations:  1,
		Queries:     []string{"rust ownership"},
		Sources: []domain.SearchResult{
			{FilePath: "/notes/rust.md", FileName: "rust.md", Score: 0.82},
		},
	}
	library := &mockLibraryService{
		files: []domain.FileSummary{
			{Path: "/notes/go.md", Name: "go.md", Language: "en", ChunkCount: 2, ContentBytes: 2048},
			{Path: "/notes/rust.md", Name: "rust.md", Language: "en", ChunkCount: 5, ContentBytes: 512},
		},
		stats: &domain.StoreStats{ChunkCount: 7, FileCount: 2, TotalContentBytes: 2560, DatabaseBytes: 1 << 20},
	}

	ts := &testServices{
		search:   &mockSearchService{},
		ask:      &mockAskService{answer: answer},
		sync:     &mockSyncService{},
		library:  library,
		settings: newMockSettingsService(),
	}

	SetServices(&Services{
		Sync:     ts.sync,
		Search:   ts.search,
		Ask:      ts.ask,
		Library:  ts.library,
		Settings: ts.settings,
	})

	return func() { SetServices(nil) }, ts
}
