package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.ResultCount())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
	assert.Nil(t, bar.Init())
}

func TestStatusBar_UpdateIsPassive(t *testing.T) {
	bar := NewBar(nil, nil)

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_ViewByState(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*Bar)
		expected string
	}{
		{"ready", func(*Bar) {}, "Ready"},
		{"searching", func(b *Bar) { b.SetState(StateSearching) }, "Searching..."},
		{"thinking", func(b *Bar) { b.SetState(StateThinking) }, "Thinking..."},
		{"error with message", func(b *Bar) {
			b.SetState(StateError)
			b.SetMessage("embedding model not loaded")
		}, "Error: embedding model not loaded"},
		{"truncated results", func(b *Bar) {
			b.SetState(StateResults)
			b.SetCounts(10, 42)
		}, "10 of 42 files"},
		{"all results", func(b *Bar) {
			b.SetState(StateResults)
			b.SetCounts(3, 3)
		}, "3 files"},
		{"no matches", func(b *Bar) { b.SetState(StateResults) }, "No matches"},
		{"answered", func(b *Bar) {
			b.SetState(StateAnswered)
			b.SetMessage("2 sources")
		}, "2 sources"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			tt.setup(bar)
			assert.Contains(t, bar.View(), tt.expected)
		})
	}
}

func TestStatusBar_Hints(t *testing.T) {
	km := keymap.DefaultKeyMap()
	bar := NewBar(nil, km)
	bar.SetWidth(120)

	assert.Contains(t, bar.View(), "esc: back")

	bar.SetHints(km.ResultsHelp())
	assert.Contains(t, bar.View(), "o: open")
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetCounts(2, 5)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.ResultCount())
}

func TestStatusBar_Width(t *testing.T) {
	bar := NewBar(nil, nil)
	assert.Equal(t, 80, bar.Width())

	bar.SetWidth(100)
	assert.Equal(t, 100, bar.Width())
}
