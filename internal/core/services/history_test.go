package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

func turn(i int) domain.ConversationTurn {
	return domain.ConversationTurn{UserMessage: fmt.Sprintf("q%d", i)}
}

func messages(turns []domain.ConversationTurn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.UserMessage
	}
	return out
}

func TestHistory_EvictsOldestFirst(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Add(turn(i))
	}

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []string{"q3", "q4", "q5"}, messages(h.Turns()))

	last, ok := h.Last()
	assert.True(t, ok)
	assert.Equal(t, "q5", last.UserMessage)
}

func TestHistory_BelowCapacity(t *testing.T) {
	h := NewHistory(5)
	h.Add(turn(1))
	h.Add(turn(2))

	assert.Equal(t, []string{"q1", "q2"}, messages(h.Turns()))
}

func TestHistory_ZeroCapacity(t *testing.T) {
	h := NewHistory(0)
	h.Add(turn(1))

	assert.Zero(t, h.Len())
	_, ok := h.Last()
	assert.False(t, ok)
	assert.Empty(t, h.Turns())
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory(2)
	h.Add(turn(1))
	h.Add(turn(2))
	h.Add(turn(3))
	h.Clear()

	assert.Zero(t, h.Len())
	h.Add(turn(4))
	assert.Equal(t, []string{"q4"}, messages(h.Turns()))
}
