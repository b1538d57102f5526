package filecontent

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

type mockLibrary struct {
	contents map[string]string
	opened   []string
	openErr  error
}

func (m *mockLibrary) ListFiles(context.Context) ([]domain.FileSummary, error) { return nil, nil }

func (m *mockLibrary) Stats(context.Context) (*domain.StoreStats, error) {
	return &domain.StoreStats{}, nil
}

func (m *mockLibrary) Content(_ context.Context, path string) (string, error) {
	c, ok := m.contents[path]
	if !ok {
		return "", domain.ErrNotFound
	}
	return c, nil
}

func (m *mockLibrary) Open(_ context.Context, path string) error {
	m.opened = append(m.opened, path)
	return m.openErr
}

func (m *mockLibrary) RemoveFile(context.Context, string) error { return nil }

func (m *mockLibrary) Clear(context.Context) error { return nil }

func numbered(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "line " + strings.Repeat("x", i%3)
	}
	return strings.Join(lines, "\n")
}

func show(t *testing.T, lib *mockLibrary, path string, width, height int) *View {
	t.Helper()
	v := NewView(nil, lib)
	v.SetDimensions(width, height)
	cmd := v.SetFile(path, domain.DisplayName(path), messages.ViewSearch)
	require.NotNil(t, cmd)
	v.Update(cmd())
	return v
}

func TestView_LoadsContent(t *testing.T) {
	lib := &mockLibrary{contents: map[string]string{"/n/a.md": "Hello\nWorld"}}
	v := show(t, lib, "/n/a.md", 80, 24)

	require.NoError(t, v.Err())
	assert.Equal(t, "Hello\nWorld", v.Content())
	assert.Equal(t, []string{"Hello", "World"}, v.Lines())

	out := v.View()
	assert.Contains(t, out, "a.md")
	assert.Contains(t, out, "/n/a.md")
	assert.Contains(t, out, "World")
}

func TestView_LoadingBeforeContent(t *testing.T) {
	v := NewView(nil, &mockLibrary{})
	v.SetFile("/n/a.md", "a.md", messages.ViewFiles)

	assert.Contains(t, v.View(), "Loading content...")
}

func TestView_NotFound(t *testing.T) {
	v := show(t, &mockLibrary{}, "/gone.md", 80, 24)

	assert.ErrorIs(t, v.Err(), domain.ErrNotFound)
	assert.Contains(t, v.View(), "Error:")
}

func TestView_NoLibrary(t *testing.T) {
	v := NewView(nil, nil)
	v.Update(v.SetFile("/x.md", "x.md", messages.ViewFiles)())

	assert.ErrorIs(t, v.Err(), ErrNoLibrary)
}

func TestView_IgnoresContentForOtherFile(t *testing.T) {
	lib := &mockLibrary{contents: map[string]string{"/n/a.md": "A"}}
	v := show(t, lib, "/n/a.md", 80, 24)

	v.Update(messages.FileContentLoaded{Path: "/n/b.md", Content: "B"})

	assert.Equal(t, "A", v.Content())
}

func TestView_WrapsByRunes(t *testing.T) {
	long := strings.Repeat("é", 50)
	lib := &mockLibrary{contents: map[string]string{"/n/u.txt": long + "\n\nend"}}
	v := show(t, lib, "/n/u.txt", 24, 24) // wrap width 20

	lines := v.Lines()
	require.Len(t, lines, 5)
	assert.Equal(t, strings.Repeat("é", 20), lines[0])
	assert.Equal(t, strings.Repeat("é", 10), lines[2])
	assert.Equal(t, "", lines[3])
	assert.Equal(t, "end", lines[4])
}

func TestView_Scrolling(t *testing.T) {
	lib := &mockLibrary{contents: map[string]string{"/n/long.txt": numbered(50)}}
	v := show(t, lib, "/n/long.txt", 80, 16) // ten visible lines

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.ScrollOffset())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, v.ScrollOffset())

	v.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 11, v.ScrollOffset())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	assert.Equal(t, 40, v.ScrollOffset())
	assert.Contains(t, v.View(), "[100%] Line 41-50 of 50")

	v.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 40, v.ScrollOffset())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	assert.Equal(t, 0, v.ScrollOffset())

	v.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 0, v.ScrollOffset())
}

func TestView_Open(t *testing.T) {
	lib := &mockLibrary{contents: map[string]string{"/n/a.md": "A"}, openErr: errors.New("no viewer")}
	v := show(t, lib, "/n/a.md", 80, 24)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}})
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Equal(t, []string{"/n/a.md"}, lib.opened)
	assert.Contains(t, v.View(), "Open: no viewer")
}

func TestView_EscReturnsToOrigin(t *testing.T) {
	lib := &mockLibrary{contents: map[string]string{"/n/a.md": "A"}}
	v := show(t, lib, "/n/a.md", 80, 24)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSearch}, cmd())
}
