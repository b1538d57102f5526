package mcp

import (
	"context"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	resp         *domain.SearchResponse
	err          error
	lastLimit    int
	lastMinScore float64
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.lastLimit = opts.Limit
	m.lastMinScore = opts.MinScore
	if m.err != nil {
		return nil, m.err
	}
	if m.resp == nil {
		return &domain.SearchResponse{}, nil
	}
	return m.resp, nil
}

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer *domain.Answer
	err    error
}

func (m *mockAskService) Ask(_ context.Context, _ string) (*domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockAskService) AskStream(ctx context.Context, message string, _ func(string)) (*domain.Answer, error) {
	return m.Ask(ctx, message)
}

func (m *mockAskService) History() []domain.ConversationTurn { return nil }

func (m *mockAskService) Reset() {}

// mockLibraryService is a mock implementation of driving.LibraryService.
type mockLibraryService struct {
	files    []domain.FileSummary
	stats    *domain.StoreStats
	contents map[string]string
	err      error
}

func (m *mockLibraryService) ListFiles(_ context.Context) ([]domain.FileSummary, error) {
	return m.files, m.err
}

func (m *mockLibraryService) Stats(_ context.Context) (*domain.StoreStats, error) {
	return m.stats, m.err
}

func (m *mockLibraryService) Content(_ context.Context, path string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	content, ok := m.contents[path]
	if !ok {
		return "", domain.ErrNotFound
	}
	return content, nil
}

func (m *mockLibraryService) Open(_ context.Context, _ string) error {
	return m.err
}

func (m *mockLibraryService) RemoveFile(_ context.Context, _ string) error {
	return m.err
}

func (m *mockLibraryService) Clear(_ context.Context) error {
	return m.err
}
