package services

import "github.com/custodia-labs/recall-cli/internal/core/domain"

// History is a fixed-capacity ring of conversation turns. The oldest turn
// is evicted when a turn is added at capacity. It is not safe for
// concurrent use; the orchestrator guards it.
type History struct {
	turns []domain.ConversationTurn
	start int
	size  int
}

// NewHistory creates a history holding at most capacity turns.
// A capacity of zero keeps nothing.
func NewHistory(capacity int) *History {
	if capacity < 0 {
		capacity = 0
	}
	return &History{turns: make([]domain.ConversationTurn, capacity)}
}

// Add appends turn, evicting the oldest at capacity.
func (h *History) Add(turn domain.ConversationTurn) {
	if len(h.turns) == 0 {
		return
	}
	if h.size < len(h.turns) {
		h.turns[(h.start+h.size)%len(h.turns)] = turn
		h.size++
		return
	}
	h.turns[h.start] = turn
	h.start = (h.start + 1) % len(h.turns)
}

// Len returns the number of retained turns.
func (h *History) Len() int {
	return h.size
}

// Last returns the most recent turn.
func (h *History) Last() (domain.ConversationTurn, bool) {
	if h.size == 0 {
		return domain.ConversationTurn{}, false
	}
	return h.turns[(h.start+h.size-1)%len(h.turns)], true
}

// Turns returns the retained turns, oldest first.
func (h *History) Turns() []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, h.size)
	for i := range out {
		out[i] = h.turns[(h.start+i)%len(h.turns)]
	}
	return out
}

// Clear drops every turn.
func (h *History) Clear() {
	clear(h.turns)
	h.start, h.size = 0, 0
}
