// Package search provides the live search view for the TUI.
package search

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
)

// View is the search-as-you-type view: an input, the ranked files and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Field
	list      *list.ResultList
	statusbar *status.Bar

	live    driving.LiveSearchService
	library driving.LibraryService
	ctx     context.Context

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool

	// waiting is set while a command is blocked on the live result channel.
	waiting bool
}

// NewView creates a new search view.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	live driving.LiveSearchService,
	library driving.LibraryService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewSearchInput(s),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		live:       live,
		library:    library,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor blink and begins listening for live results.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.listen())
}

// listen returns a command that waits for the next live result.
// Only one listener is outstanding at a time.
func (v *View) listen() tea.Cmd {
	if v.live == nil || v.waiting {
		return nil
	}
	v.waiting = true
	results := v.live.Results()
	return func() tea.Msg {
		r, ok := <-results
		if !ok {
			return nil
		}
		return messages.SearchCompleted{Query: r.Query, Response: r.Response, Err: r.Err}
	}
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.waiting = false
		v.handleSearchCompleted(msg)
		return v, v.listen()

	case messages.FileOpened:
		if msg.Err != nil {
			v.statusbar.SetMessage("Open: " + msg.Err.Error())
		} else {
			v.statusbar.SetMessage("Opened " + domain.DisplayName(msg.Path))
		}
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if keymap.Matches(msg.String(), v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if keymap.Matches(msg.String(), v.keymap.Focus) {
		v.toggleFocus()
		return v, nil
	}

	if v.focusInput {
		return v.handleInputKey(msg)
	}
	return v.handleResultsKey(msg)
}

func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		query := strings.TrimSpace(v.input.Value())
		if query == "" || v.live == nil {
			return v, nil
		}
		v.statusbar.SetState(status.StateSearching)
		v.live.SubmitNow(query)
		return v, v.listen()
	}

	before := v.input.Value()
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	if v.input.Value() == before {
		return v, cmd
	}

	if v.live == nil {
		v.setError(ErrNoLiveSearch)
		return v, cmd
	}

	query := strings.TrimSpace(v.input.Value())
	if query == "" {
		v.clearResults()
	} else {
		v.statusbar.SetState(status.StateSearching)
	}
	// An empty submission still supersedes any pending query.
	v.live.Submit(query)
	return v, tea.Batch(cmd, v.listen())
}

func (v *View) handleResultsKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(msg.String(), v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(msg.String(), v.keymap.Select):
		result := v.list.SelectedResult()
		if result == nil {
			return v, nil
		}
		selected := messages.FileSelected{Path: result.FilePath, Name: result.FileName, From: messages.ViewSearch}
		return v, func() tea.Msg { return selected }
	case keymap.Matches(msg.String(), v.keymap.Open):
		result := v.list.SelectedResult()
		if result == nil {
			return v, nil
		}
		return v, v.open(result.FilePath)
	}
	return v, nil
}

func (v *View) open(path string) tea.Cmd {
	library, ctx := v.library, v.ctx
	return func() tea.Msg {
		if library == nil {
			return messages.FileOpened{Path: path, Err: ErrNoLibrary}
		}
		return messages.FileOpened{Path: path, Err: library.Open(ctx, path)}
	}
}

func (v *View) toggleFocus() {
	if v.focusInput {
		if v.list.IsEmpty() {
			return
		}
		v.focusInput = false
		v.input.Blur()
		v.statusbar.SetHints(v.keymap.ResultsHelp())
		return
	}
	v.focusInput = true
	v.input.Focus()
	v.statusbar.SetHints(v.keymap.ShortHelp())
}

// handleSearchCompleted applies a live result unless the input has moved on.
func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Query != strings.TrimSpace(v.input.Value()) {
		return
	}

	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.statusbar.SetMessage("")
	if msg.Response == nil || msg.Query == "" {
		v.clearResults()
		return
	}
	v.list.SetResults(msg.Response.Results)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetCounts(len(msg.Response.Results), msg.Response.TotalMatches)
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) clearResults() {
	v.err = nil
	v.list.SetResults(nil)
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
	v.statusbar.SetCounts(0, 0)
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("recall"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current search query.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the search query without submitting it.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Results returns the current search results.
func (v *View) Results() []domain.SearchResult {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}

// Reset returns the view to an empty, focused input.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.statusbar.SetHints(v.keymap.ShortHelp())
	v.clearResults()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
