package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/messages"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewView(t *testing.T) {
	v := NewView(nil)

	require.NotNil(t, v)
	assert.Equal(t, 0, v.Selected())
	assert.Nil(t, v.Init())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_Items(t *testing.T) {
	items := NewView(nil).Items()

	require.Len(t, items, 5)
	assert.Equal(t, messages.ViewSearch, items[0].View)
	assert.Equal(t, messages.ViewAsk, items[1].View)
	assert.Equal(t, messages.ViewFiles, items[2].View)
	assert.Equal(t, messages.ViewHelp, items[3].View)
	assert.True(t, items[4].Quit)
}

func TestView_Navigation(t *testing.T) {
	v := NewView(nil)

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.Selected())

	v.Update(keyRunes("j"))
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, v.Selected())

	for i := 0; i < 10; i++ {
		v.Update(keyRunes("j"))
	}
	assert.Equal(t, 4, v.Selected())

	v.Update(keyRunes("k"))
	assert.Equal(t, 3, v.Selected())
}

func TestView_EnterChangesView(t *testing.T) {
	v := NewView(nil)
	v.Update(keyRunes("j"))

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	changed, ok := cmd().(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewAsk, changed.View)
}

func TestView_DigitJumps(t *testing.T) {
	v := NewView(nil)

	_, cmd := v.Update(keyRunes("3"))
	require.NotNil(t, cmd)

	assert.Equal(t, 2, v.Selected())
	assert.Equal(t, messages.ViewChanged{View: messages.ViewFiles}, cmd())
}

func TestView_DigitOutOfRangeIgnored(t *testing.T) {
	v := NewView(nil)

	_, cmd := v.Update(keyRunes("9"))

	assert.Nil(t, cmd)
	assert.Equal(t, 0, v.Selected())
}

func TestView_QuitItem(t *testing.T) {
	v := NewView(nil)

	_, cmd := v.Update(keyRunes("5"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView_QKeyQuits(t *testing.T) {
	_, cmd := NewView(nil).Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView_WindowSize(t *testing.T) {
	v := NewView(nil)

	v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	out := v.View()
	assert.Contains(t, out, "recall")
	assert.Contains(t, out, "1. Search")
	assert.Contains(t, out, "2. Ask")
	assert.Contains(t, out, "answers with cited sources")
	assert.Contains(t, out, "[q] Quit")
}
