package driving

import (
	"context"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search ranks indexed files against the query.
	// Returns domain.ErrEmptyInput for a blank query.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}

// AskService answers questions from indexed documents.
type AskService interface {
	// Ask runs the search loop and synthesises a cited answer.
	Ask(ctx context.Context, message string) (*domain.Answer, error)

	// AskStream behaves like Ask and reports the answer text incrementally.
	AskStream(ctx context.Context, message string, onDelta func(string)) (*domain.Answer, error)

	// History returns the retained conversation, oldest first.
	History() []domain.ConversationTurn

	// Reset clears the conversation.
	Reset()
}

// LiveSearchService runs debounced queries while the user types.
// Each submission supersedes the previous one.
type LiveSearchService interface {
	// Submit schedules query after the debounce delay.
	Submit(query string)

	// SubmitNow runs query immediately.
	SubmitNow(query string)

	// Results delivers only the latest query's outcome.
	Results() <-chan domain.LiveResult

	// Close cancels pending work and closes Results.
	Close()
}
